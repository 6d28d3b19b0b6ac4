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

type passwordRecoveryBody struct {
	Email string `json:"email"`
}

type passwordResetBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// PasswordRecovery mails a signed reset token to a registered address
func (a *API) PasswordRecovery(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data passwordRecoveryBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	user, err := a.Users.FindByEmail(data.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	ttl := time.Duration(viper.GetInt("registration.reset_token_ttl_minutes")) * time.Minute

	resetToken, err := a.Tokens.Issue(user.Email, security.PurposePasswordReset, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	subject, body := service.BuildPasswordResetMail(resetToken)

	if err := a.Mail.Send(user.Email, subject, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to send reset email", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password recovery email sent",
		"requestID": requestID,
	})
}

// PasswordReset redeems a reset token and replaces the stored hash
// wholesale
func (a *API) PasswordReset(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data passwordResetBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	email, ok := a.Tokens.Verify(data.Token, security.PurposePasswordReset)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid token",
			"requestID": requestID,
		})
		return
	}

	user, err := a.Users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Users.SetPassword(user.ID, data.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to set new password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password updated successfully",
		"requestID": requestID,
	})
}
