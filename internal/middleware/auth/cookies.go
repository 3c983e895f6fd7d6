package auth

import (
	"net/http"
	"time"
)

// CookieConfig carries every attribute of the credential cookies.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
	HTTPOnly    bool
	SameSite    http.SameSite
}

func (cfg CookieConfig) withDefaults() CookieConfig {
	if cfg.AccessName == "" {
		cfg.AccessName = "access_token"
	}
	if cfg.RefreshName == "" {
		cfg.RefreshName = "refresh_token"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return cfg
}

// Issue builds a cookie that lives as long as the token it carries.
func (cfg CookieConfig) Issue(name, value string, maxAge time.Duration) *http.Cookie {
	cfg = cfg.withDefaults()
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	}
}

func (cfg CookieConfig) Clear(name string) *http.Cookie {
	cfg = cfg.withDefaults()
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	}
}
