package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewTokenService([]byte("test-secret"))

	token, err := s.Issue("user@example.com", PurposeConfirmEmail, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, ok := s.Verify(token, PurposeConfirmEmail)
	assert.True(t, ok)
	assert.Equal(t, "user@example.com", subject)
}

func TestTokenExpired(t *testing.T) {
	s := NewTokenService([]byte("test-secret"))

	token, err := s.Issue("user@example.com", PurposeConfirmEmail, -time.Minute)
	require.NoError(t, err)

	subject, ok := s.Verify(token, PurposeConfirmEmail)
	assert.False(t, ok)
	assert.Empty(t, subject)
}

func TestTokenTampered(t *testing.T) {
	s := NewTokenService([]byte("test-secret"))

	token, err := s.Issue("user@example.com", PurposeConfirmEmail, time.Hour)
	require.NoError(t, err)

	// Flip a character in the payload section
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	_, ok := s.Verify(string(tampered), PurposeConfirmEmail)
	assert.False(t, ok)
}

func TestTokenWrongKey(t *testing.T) {
	issuer := NewTokenService([]byte("key-one"))
	verifier := NewTokenService([]byte("key-two"))

	token, err := issuer.Issue("user@example.com", PurposeConfirmEmail, time.Hour)
	require.NoError(t, err)

	_, ok := verifier.Verify(token, PurposeConfirmEmail)
	assert.False(t, ok)
}

func TestTokenWrongPurpose(t *testing.T) {
	s := NewTokenService([]byte("test-secret"))

	confirm, err := s.Issue("user@example.com", PurposeConfirmEmail, time.Hour)
	require.NoError(t, err)

	reset, err := s.Issue("user@example.com", PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	// Tokens never cross flows
	_, ok := s.Verify(confirm, PurposePasswordReset)
	assert.False(t, ok)

	_, ok = s.Verify(reset, PurposeConfirmEmail)
	assert.False(t, ok)
}

func TestTokenGarbage(t *testing.T) {
	s := NewTokenService([]byte("test-secret"))

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, ok := s.Verify(token, PurposeConfirmEmail)
		assert.False(t, ok)
	}
}
