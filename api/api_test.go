package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"bitwise74/account-api/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type stubMailer struct {
	sent []sentMail
	fail bool
}

func (m *stubMailer) Send(to, subject, htmlBody string) error {
	if m.fail {
		return errors.New("smtp is down")
	}

	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func testAPI(t *testing.T) (*API, *stubMailer) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	viper.Set("jwt.secret", "test-secret")
	viper.Set("totp.issuer", "account-api")
	viper.Set("host.domain", "localhost")
	viper.Set("host.ssl.enabled", false)
	viper.Set("registration.confirm_token_ttl_minutes", 60)
	viper.Set("registration.confirm_deadline_days", 30)
	viper.Set("registration.reset_token_ttl_minutes", 60)
	viper.Set("security.otp_max_fails", 5)
	viper.Set("security.otp_lockout_minutes", 15)
	viper.Set("cloudflare.turnstile.enabled", false)

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(model.User{}, model.Item{}))

	mail := &stubMailer{}

	return NewAPI(conn, mail), mail
}

func doJSON(t *testing.T, a *API, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func authCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	token, err := makeToken(&jwt.MapClaims{
		"user_id": userID,
		"type":    "auth",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	return &http.Cookie{Name: "auth_token", Value: token}
}

// activeUser registers and confirms a user in one go, returning the
// record with its OTP secret set
func activeUser(t *testing.T, a *API, email string) *model.User {
	t.Helper()

	user, err := a.Users.Create(email, "password123", time.Hour)
	require.NoError(t, err)

	secret, _, err := a.TOTP.Enroll(email)
	require.NoError(t, err)

	require.NoError(t, a.Users.Activate(user.ID, secret))

	got, err := a.Users.FindByID(user.ID)
	require.NoError(t, err)

	return got
}
