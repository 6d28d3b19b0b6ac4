package api

import (
	"errors"
	"net/http"
	"time"

	"bitwise74/account-api/internal/service"
	"bitwise74/account-api/internal/store"
	"bitwise74/account-api/pkg/security"
	"bitwise74/account-api/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRegister creates a new inactive account and mails a signed
// confirmation token. The account stays unusable until the email is
// confirmed and is reaped if the deadline passes
func (a *API) UserRegister(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		zap.L().Debug("Invalid email", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		zap.L().Debug("Invalid password", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if _, err := a.Users.FindByEmail(data.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "This email is already registered. Please login or use a different email",
			"requestID": requestID,
		})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if user is registered", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	ttl := time.Duration(viper.GetInt("registration.confirm_token_ttl_minutes")) * time.Minute

	confirmToken, err := a.Tokens.Issue(data.Email, security.PurposeConfirmEmail, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue confirmation token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Try to send mail before touching the database so a dead SMTP
	// server doesn't leave half-registered accounts behind
	subject, body := service.BuildConfirmationMail(confirmToken)

	if err := a.Mail.Send(data.Email, subject, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to send confirmation email", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	deadline := time.Duration(viper.GetInt("registration.confirm_deadline_days")) * 24 * time.Hour

	if _, err := a.Users.Create(data.Email, data.Password, deadline); err != nil {
		// The unique index is the authoritative duplicate check, a
		// concurrent registration may have won the race
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "This email is already registered. Please login or use a different email",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Registration successful. Please check your email for confirmation",
		"requestID": requestID,
	})
}
