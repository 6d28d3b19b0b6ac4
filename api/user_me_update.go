package api

import (
	"errors"
	"net/http"

	"bitwise74/account-api/internal/store"
	"bitwise74/account-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type updateMeBody struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Password *string `json:"password"`
}

// UserMeUpdate applies a sparse patch to the caller's own record.
// Fields absent from the body stay untouched
func (a *API) UserMeUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data updateMeBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Email != nil {
		if err := validators.EmailValidator(*data.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}
	}

	if data.Password != nil {
		if err := validators.PasswordValidator(*data.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}
	}

	patch := store.UserPatch{
		Email:    data.Email,
		FullName: data.FullName,
		Password: data.Password,
	}

	if err := a.Users.Update(userID, patch); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "A user with this email already exists",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	user, err := a.Users.FindByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch updated user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, user)
}
