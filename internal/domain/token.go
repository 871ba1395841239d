package domain

import "time"

// TokenPair is what a successful register or login hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // access token lifetime
	AccountID    string
}
