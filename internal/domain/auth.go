package domain

import "time"

// TokenIssuer issues bearer tokens for scheduler callers.
type TokenIssuer interface {
	Issue(subject string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}
