package auth

import (
	"crypto/subtle"

	"partyreminders/internal/domain"
)

// SchedulerSubject identifies callers authenticated with the shared secret.
const SchedulerSubject = "scheduler"

type sharedSecretVerifier struct {
	secret []byte
}

// NewSharedSecretVerifier returns a TokenVerifier that accepts exactly the configured
// secret. An empty secret rejects every token.
func NewSharedSecretVerifier(secret string) domain.TokenVerifier {
	return &sharedSecretVerifier{secret: []byte(secret)}
}

func (v *sharedSecretVerifier) Verify(token string) (string, error) {
	if len(v.secret) == 0 || subtle.ConstantTimeCompare([]byte(token), v.secret) != 1 {
		return "", domain.ErrInvalidToken
	}
	return SchedulerSubject, nil
}

// NewVerifier picks the verifier for the configured mode: "jwt" or "secret" (default).
func NewVerifier(mode, secret string) domain.TokenVerifier {
	if mode == "jwt" {
		return NewJWTVerifier(secret)
	}
	return NewSharedSecretVerifier(secret)
}
