package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createItemBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *API) ItemCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data createItemBody
	if err := c.ShouldBind(&data); err != nil || data.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Title field can't be empty",
			"requestID": requestID,
		})
		return
	}

	item, err := a.Items.Create(userID, data.Title, data.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create item", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, item)
}
