package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserMeDelete removes the caller's account and everything it owns in
// one transaction. Superusers can't delete themselves through
// self-service
func (a *API) UserMeDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if c.GetBool("isSuperuser") {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Super users are not allowed to delete themselves",
			"requestID": requestID,
		})
		return
	}

	if err := a.Users.Delete(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.SetCookie("logged_in", "", -1, "/", "", false, false)

	c.JSON(http.StatusOK, gin.H{
		"message":   "User deleted successfully",
		"requestID": requestID,
	})
}
