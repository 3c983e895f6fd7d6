package hash

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Cost is lowered by tests to keep bcrypt fast.
var Cost = bcrypt.DefaultCost

var (
	dummyOnce sync.Once
	dummy     string
)

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyHash is compared against when no account matches, so a miss costs
// the same bcrypt work as a wrong password.
func DummyHash() string {
	dummyOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("no-such-account"), Cost)
		if err != nil {
			panic(err)
		}
		dummy = string(b)
	})
	return dummy
}
