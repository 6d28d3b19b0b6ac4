package api

import (
	"errors"
	"net/http"

	"bitwise74/account-api/internal/store"
	"bitwise74/account-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserConfirm redeems an emailed confirmation token. On success the
// account becomes active and gets its TOTP secret in one transaction;
// the response carries the provisioning URI, which is the only time
// the secret is ever shown
func (a *API) UserConfirm(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No confirmation token provided",
			"requestID": requestID,
		})
		return
	}

	// Expired, tampered and malformed tokens are indistinguishable on
	// purpose
	email, ok := a.Tokens.Verify(token, security.PurposeConfirmEmail)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid confirmation token",
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

	// Re-confirming must never rotate an already-enrolled secret
	if user.IsActive {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Email already confirmed",
			"requestID": requestID,
		})
		return
	}

	secret, uri, err := a.TOTP.Enroll(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate OTP secret", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Users.Activate(user.ID, secret); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to activate user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Email confirmed successfully. 2FA enabled. Scan this QR code with your authenticator app",
		"otpProvisioningUri": uri,
		"requestID":          requestID,
	})
}
