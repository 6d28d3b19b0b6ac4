package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A token minted for one flow is worthless in another
const (
	PurposeConfirmEmail  = "confirm_email"
	PurposePasswordReset = "password_reset"
)

type tokenClaims struct {
	Purpose string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the short-lived signed tokens used
// for email confirmation and password resets. Tokens carry a subject,
// a purpose and an expiry and are never stored server-side, so
// rotating the signing secret invalidates every outstanding token at
// once.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret []byte) *TokenService {
	return &TokenService{
		secret: secret,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(subject, purpose string, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
	})

	return t.SignedString(s.secret)
}

// Verify decodes a token and returns its subject. Malformed, tampered,
// expired and wrong-purpose tokens all collapse to ok=false so callers
// can't tell the failure modes apart
func (s *TokenService) Verify(token, purpose string) (subject string, ok bool) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", false
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" || claims.Purpose != purpose {
		return "", false
	}

	return claims.Subject, true
}
