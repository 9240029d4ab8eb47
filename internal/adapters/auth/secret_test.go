package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedSecretVerifier_Verify(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		token   string
		wantErr bool
	}{
		{"match", "s3cret", "s3cret", false},
		{"mismatch", "s3cret", "s3cre", true},
		{"empty token", "s3cret", "", true},
		{"empty configured secret rejects everything", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewSharedSecretVerifier(tt.secret).Verify(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SchedulerSubject, sub)
		})
	}
}

func TestNewVerifier(t *testing.T) {
	_, err := NewVerifier("secret", "s3cret").Verify("s3cret")
	require.NoError(t, err)

	token, err := NewJWTIssuer("s3cret").Issue("cron", time.Minute)
	require.NoError(t, err)
	_, err = NewVerifier("jwt", "s3cret").Verify(token)
	require.NoError(t, err)
	_, err = NewVerifier("jwt", "s3cret").Verify("s3cret")
	require.Error(t, err, "jwt mode does not accept the raw secret")
}
