package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness. It is served outside the auth
// middleware and does not touch the store.
func (api *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"health": "OK",
	})
}
