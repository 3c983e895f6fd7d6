package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DatabaseDriver string
	DatabaseURL    string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	Cookies     Cookies
	CSRFEnabled bool

	KafkaBrokers []string

	ESURL         string
	ESUser        string
	ESPassword    string
	ESReviewIndex string

	RedisAddr     string
	RedisPassword string

	Product ProductSeed
}

// Cookies describes how credential cookies are written back to browsers.
type Cookies struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
	HTTPOnly    bool
	SameSite    http.SameSite
}

type ProductSeed struct {
	ID          uint
	Name        string
	Description string
	Price       float64
	Stock       int
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DatabaseDriver: EnvDefault("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTokenTTL:   EnvDurationDefault("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL:  EnvDurationDefault("REFRESH_TOKEN_TTL", 24*time.Hour),

		Cookies: Cookies{
			AccessName:  EnvDefault("AUTH_COOKIE", "access_token"),
			RefreshName: EnvDefault("AUTH_COOKIE_REFRESH", "refresh_token"),
			Path:        EnvDefault("AUTH_COOKIE_PATH", "/"),
			Domain:      os.Getenv("AUTH_COOKIE_DOMAIN"),
			Secure:      EnvBoolDefault("AUTH_COOKIE_SECURE", false),
			HTTPOnly:    EnvBoolDefault("AUTH_COOKIE_HTTP_ONLY", true),
			SameSite:    ParseSameSite(EnvDefault("AUTH_COOKIE_SAMESITE", "Lax")),
		},
		CSRFEnabled: EnvBoolDefault("CSRF_ENABLED", false),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:         os.Getenv("ES_URL"),
		ESUser:        os.Getenv("ES_USER"),
		ESPassword:    os.Getenv("ES_PASSWORD"),
		ESReviewIndex: EnvDefault("ES_REVIEW_INDEX", "reviews"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		Product: ProductSeed{
			ID:          uint(EnvIntDefault("PRODUCT_ID", 1)),
			Name:        EnvDefault("SEED_PRODUCT_NAME", "Default Product"),
			Description: EnvDefault("SEED_PRODUCT_DESCRIPTION", "Product description"),
			Price:       EnvFloatDefault("SEED_PRODUCT_PRICE", 0),
			Stock:       EnvIntDefault("SEED_PRODUCT_STOCK", 0),
		},
	}
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDurationDefault accepts Go duration strings ("15m") or plain seconds.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}
