package jwtx

import "errors"

// Verifier validates a token string and gives you back the claims if it's
// legit and of the expected type.
type Verifier interface {
	Verify(token, expectedType string) (Claims, error)
}

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrAlgMismatch      = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")

	ErrIssuer         = errors.New("jwtx: issuer mismatch")
	ErrExpired        = errors.New("jwtx: token expired")
	ErrWrongTokenType = errors.New("jwtx: wrong token type")
)
