package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers HEAD requests from load balancers and uptime checks
func (a *API) Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
