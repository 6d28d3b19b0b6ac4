package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type verifyOTPBody struct {
	OTPCode string `json:"otpCode"`
}

// UserVerifyOTP checks a submitted authenticator code against the
// caller's stored secret. Five consecutive failures lock the account
// out for a while; a correct code clears both the counter and the lock
func (a *API) UserVerifyOTP(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data verifyOTPBody
	if err := c.ShouldBind(&data); err != nil || data.OTPCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No OTP code provided",
			"requestID": requestID,
		})
		return
	}

	user, err := a.Users.FindByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if user.OTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "2FA is not enabled for this user",
			"requestID": requestID,
		})
		return
	}

	if user.LockoutUntil != nil && user.LockoutUntil.After(time.Now()) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Too many failed attempts. Try again later",
			"requestID": requestID,
		})
		return
	}

	if !a.TOTP.VerifyCode(user.OTPSecret, data.OTPCode) {
		maxFails := viper.GetInt("security.otp_max_fails")
		lockFor := time.Duration(viper.GetInt("security.otp_lockout_minutes")) * time.Minute

		locked, err := a.Users.RecordOTPFailure(userID, maxFails, lockFor)
		if err != nil {
			zap.L().Error("Failed to record OTP failure", zap.Error(err), zap.String("requestID", requestID))
		}

		if locked {
			c.JSON(http.StatusForbidden, gin.H{
				"error":     "Too many failed attempts. Try again later",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid OTP code",
			"requestID": requestID,
		})
		return
	}

	if err := a.Users.ResetOTPFailures(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to reset OTP counters", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "OTP verified successfully",
		"requestID": requestID,
	})
}
