package api

import (
	"net/http"

	"bitwise74/account-api/internal/service"
	"bitwise74/account-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type testEmailBody struct {
	EmailTo string `json:"emailTo"`
}

// TestEmail lets a superuser check the SMTP configuration
func (a *API) TestEmail(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data testEmailBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.EmailTo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	subject, body := service.BuildTestMail()

	if err := a.Mail.Send(data.EmailTo, subject, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to send test email", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Test email sent",
		"requestID": requestID,
	})
}
