package cryptox

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinCost is the lowest work factor HashPassword will accept.
	// OWASP recommends at least 12 rounds for bcrypt.
	MinCost = 12

	// maxPasswordBytes is bcrypt's input limit; longer passwords are
	// truncated before hashing so hash and verify agree.
	maxPasswordBytes = 72
)

// dummyDigest is a fixed bcrypt digest at MinCost. Login compares against it
// for unknown accounts so the request burns the same CPU as a wrong password
// and response timing does not reveal whether an email exists.
const dummyDigest = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// Costs below MinCost are raised to MinCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinCost {
		cost = MinCost
	}

	digest, err := bcrypt.GenerateFromPassword(truncate(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword reports whether password matches the stored bcrypt digest.
// A malformed digest verifies as false rather than erroring, so callers can
// treat every mismatch the same way. The comparison is constant-time inside
// the bcrypt primitive.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), truncate(password)) == nil
}

// DummyCompare runs a bcrypt comparison against a fixed digest and discards
// the result. Call it on the no-such-account path to keep login latency
// uniform.
func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyDigest), truncate(password))
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
