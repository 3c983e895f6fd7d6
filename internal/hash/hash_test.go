package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	Cost = bcrypt.MinCost
	h, err := HashPassword("password123")
	require.NoError(t, err)

	tests := []struct {
		password string
		want     bool
	}{
		{"password123", true},
		{"password124", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CheckPassword(h, tt.password), tt.password)
	}
	assert.False(t, CheckPassword("not-a-hash", "password123"))
}

func TestDummyHash(t *testing.T) {
	Cost = bcrypt.MinCost
	h := DummyHash()
	assert.Equal(t, h, DummyHash())

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	for _, pw := range []string{"", "password123", "no-such-account-x"} {
		assert.False(t, CheckPassword(h, pw), pw)
	}
}
