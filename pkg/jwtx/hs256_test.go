package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	testIssuer = "test-issuer"
	testNow    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func newTestSigner(t *testing.T) Signer {
	t.Helper()
	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	return signer
}

func newTestVerifier(at time.Time) *HS256Verifier {
	v := NewVerifierHS256(testSecret, testIssuer)
	v.Now = func() time.Time { return at }
	return v
}

func TestNewSignerHS256_ShortSecret(t *testing.T) {
	_, err := NewSignerHS256([]byte("too-short"))
	require.Error(t, err)
}

func TestHS256_SignAndVerify(t *testing.T) {
	signer := newTestSigner(t)

	for _, tokenType := range []string{TokenTypeAccess, TokenTypeRefresh} {
		t.Run(tokenType, func(t *testing.T) {
			token, err := signer.Sign(NewClaims("acct-123", tokenType, testIssuer, 30*time.Minute, testNow))
			require.NoError(t, err)
			require.Len(t, strings.Split(token, "."), 3, "compact JWS has three segments")

			claims, err := newTestVerifier(testNow).Verify(token, tokenType)
			require.NoError(t, err)
			require.Equal(t, "acct-123", claims.Subject)
			require.Equal(t, testIssuer, claims.Issuer)
			require.Equal(t, tokenType, claims.TokenType)
		})
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Sign(NewClaims("acct-123", TokenTypeAccess, testIssuer, 30*time.Minute, testNow))
	require.NoError(t, err)

	// Flip a character in the middle of the signature segment.
	sigStart := strings.LastIndex(token, ".") + 1
	pos := sigStart + (len(token)-sigStart)/2
	replacement := byte('A')
	if token[pos] == replacement {
		replacement = 'B'
	}
	tampered := token[:pos] + string(replacement) + token[pos+1:]

	_, err = newTestVerifier(testNow).Verify(tampered, TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Sign(NewClaims("acct-123", TokenTypeAccess, testIssuer, 30*time.Minute, testNow))
	require.NoError(t, err)

	v := NewVerifierHS256([]byte("ffffffffffffffffffffffffffffffff"), testIssuer)
	v.Now = func() time.Time { return testNow }

	_, err = v.Verify(token, TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"single segment", "abcdef"},
		{"two segments", "abc.def"},
		{"garbage segments", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestVerifier(testNow).Verify(tt.token, TokenTypeAccess)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Sign(NewClaims("acct-123", TokenTypeAccess, testIssuer, 30*time.Minute, testNow))
	require.NoError(t, err)

	_, err = newTestVerifier(testNow.Add(31 * time.Minute)).Verify(token, TokenTypeAccess)
	require.ErrorIs(t, err, ErrExpired)

	// Still fine one second before the deadline.
	_, err = newTestVerifier(testNow.Add(30*time.Minute - time.Second)).Verify(token, TokenTypeAccess)
	require.NoError(t, err)
}

func TestVerify_WrongTokenType(t *testing.T) {
	signer := newTestSigner(t)

	access, err := signer.Sign(NewClaims("acct-123", TokenTypeAccess, testIssuer, 30*time.Minute, testNow))
	require.NoError(t, err)
	refresh, err := signer.Sign(NewClaims("acct-123", TokenTypeRefresh, testIssuer, 7*24*time.Hour, testNow))
	require.NoError(t, err)

	v := newTestVerifier(testNow)

	_, err = v.Verify(access, TokenTypeRefresh)
	require.ErrorIs(t, err, ErrWrongTokenType, "access token must not act as a refresh token")

	_, err = v.Verify(refresh, TokenTypeAccess)
	require.ErrorIs(t, err, ErrWrongTokenType, "refresh token must not act as an access token")
}

func TestVerify_WrongIssuer(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Sign(NewClaims("acct-123", TokenTypeAccess, "someone-else", 30*time.Minute, testNow))
	require.NoError(t, err)

	_, err = newTestVerifier(testNow).Verify(token, TokenTypeAccess)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerify_CheckOrder(t *testing.T) {
	// Signature problems must win over expiry, and expiry over type, so a
	// forged token never learns which claims were otherwise acceptable.
	signer := newTestSigner(t)

	expired, err := signer.Sign(NewClaims("acct-123", TokenTypeRefresh, testIssuer, time.Minute, testNow.Add(-time.Hour)))
	require.NoError(t, err)

	t.Run("bad signature on expired token", func(t *testing.T) {
		v := NewVerifierHS256([]byte("ffffffffffffffffffffffffffffffff"), testIssuer)
		v.Now = func() time.Time { return testNow }

		_, err := v.Verify(expired, TokenTypeAccess)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired token with wrong type", func(t *testing.T) {
		_, err := newTestVerifier(testNow).Verify(expired, TokenTypeAccess)
		require.ErrorIs(t, err, ErrExpired)
	})
}
