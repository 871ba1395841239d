package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"empty password", ""},
		{"unicode password", "пароль密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, MinCost)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			// Modular crypt format with the configured cost
			require.True(t, strings.HasPrefix(hash, "$2a$12$"),
				"hash should carry the bcrypt prefix and cost")

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			require.Equal(t, MinCost, cost)
		})
	}
}

func TestHashPassword_RaisesLowCost(t *testing.T) {
	// A cost below the floor is silently raised, never accepted.
	hash, err := HashPassword("password123", 4)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, MinCost, cost)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	password := "samepassword"

	hash1, err := HashPassword(password, MinCost)
	require.NoError(t, err)

	hash2, err := HashPassword(password, MinCost)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")

	require.True(t, VerifyPassword(password, hash1))
	require.True(t, VerifyPassword(password, hash2))
}

func TestHashPassword_LongPasswordsTruncate(t *testing.T) {
	// bcrypt only reads the first 72 bytes; both sides truncate the same
	// way so verification stays symmetric.
	long := strings.Repeat("a", 100)

	hash, err := HashPassword(long, MinCost)
	require.NoError(t, err)

	require.True(t, VerifyPassword(long, hash))
	require.True(t, VerifyPassword(strings.Repeat("a", 72), hash),
		"first 72 bytes decide the outcome")
	require.False(t, VerifyPassword(strings.Repeat("a", 71), hash))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password", MinCost)
	require.NoError(t, err)

	tests := []struct {
		name          string
		wrongPassword string
	}{
		{"completely wrong", "wrong-password"},
		{"case difference", "Correct-Password"},
		{"extra space", "correct-password "},
		{"empty password", ""},
		{"similar password", "correct-passwor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, VerifyPassword(tt.wrongPassword, hash))
		})
	}
}

func TestVerifyPassword_InvalidDigest(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"empty digest", ""},
		{"garbage", "not-a-bcrypt-hash"},
		{"wrong scheme", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"truncated", "$2a$12$tooshort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, VerifyPassword("any-password", tt.digest))
		})
	}
}

func TestDummyCompare(t *testing.T) {
	// Must never panic and never verify; it exists purely to equalize
	// timing for unknown accounts.
	DummyCompare("whatever")
	DummyCompare("")
	DummyCompare(strings.Repeat("x", 500))

	require.False(t, VerifyPassword("whatever", dummyDigest))
}
