package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/relayview-io/relayview/internal/models"
	"github.com/relayview-io/relayview/internal/policy"
	"github.com/relayview-io/relayview/internal/store"
)

const (
	TotalCountHeader = "X-Total-Count"

	defaultLimit = 25
	maxLimit     = 100
)

// Query carries the list-endpoint query parameters.
type Query struct {
	Skip      int    `form:"skip"`
	Limit     int    `form:"limit,default=25"`
	OwnerID   string `form:"ownerId"`
	SessionID string `form:"sessionId"`
}

// bindListQuery binds and validates the pagination and filter parameters
// before any store access happens.
func bindListQuery(c *gin.Context) (store.Filter, store.Page, *ApiResponseError) {
	var query Query
	if err := c.ShouldBindQuery(&query); err != nil {
		return store.Filter{}, store.Page{}, NewApiResponseError(http.StatusBadRequest, models.NewBadPayloadError(err))
	}
	if query.Skip < 0 {
		return store.Filter{}, store.Page{}, NewApiResponseError(http.StatusBadRequest,
			models.NewFieldValidationError("skip", "must not be negative"))
	}
	if query.Limit < 1 || query.Limit > maxLimit {
		return store.Filter{}, store.Page{}, NewApiResponseError(http.StatusBadRequest,
			models.NewFieldValidationError("limit", "must be between 1 and 100"))
	}

	filter := store.Filter{OwnerID: query.OwnerID}
	if query.SessionID != "" {
		sessionID, err := primitive.ObjectIDFromHex(query.SessionID)
		if err != nil {
			return store.Filter{}, store.Page{}, NewApiResponseError(http.StatusBadRequest,
				models.NewFieldValidationError("sessionId", "must be a valid id"))
		}
		filter.SessionID = &sessionID
	}
	return filter, store.Page{Skip: query.Skip, Limit: query.Limit}, nil
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (primitive.ObjectID, *ApiResponseError) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, NewApiResponseError(http.StatusBadRequest, models.NewBadPathParameterError("id"))
	}
	return id, nil
}

// sendPolicyRejection maps an ownership policy rejection onto its HTTP
// reply: impersonation refusals are 401, machine self-ownership is 400.
func sendPolicyRejection(c *gin.Context, rejection *policy.Rejection) {
	if rejection.Impersonation {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError(rejection.Reason))
		return
	}
	c.JSON(http.StatusBadRequest, models.NewBadRequestError(rejection.Reason))
}

func (api *API) sendListHeaders(c *gin.Context, total int64) {
	// For pagination-aware clients
	c.Header("Access-Control-Expose-Headers", TotalCountHeader)
	c.Header(TotalCountHeader, strconv.FormatInt(total, 10))
}
