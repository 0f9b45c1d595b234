package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relayview-io/relayview/internal/models"
)

// ListFeatureFlags lists all feature flags
func (api *API) ListFeatureFlags(c *gin.Context) {
	c.JSON(http.StatusOK, api.fflags.ListFlags())
}

// GetFeatureFlag gets a feature flag by name
func (api *API) GetFeatureFlag(c *gin.Context) {
	flagName := c.Param("name")
	if flagName == "" {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("name"))
		return
	}

	enabled, err := api.fflags.GetFlag(flagName)
	if err != nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("flag"))
		return
	}

	c.JSON(http.StatusOK, map[string]bool{flagName: enabled})
}
