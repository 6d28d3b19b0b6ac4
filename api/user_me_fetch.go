package api

import (
	"errors"
	"net/http"

	"bitwise74/account-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserMeFetch returns the caller's own profile. Sensitive columns are
// hidden by the model's json tags
func (a *API) UserMeFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	user, err := a.Users.FindByID(userID)
	if err != nil {
		// The account can be deleted between the auth check and here
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "user_not_found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, user)
}
