package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relayview-io/relayview/internal/models"
	"github.com/relayview-io/relayview/internal/policy"
	"github.com/relayview-io/relayview/internal/store"
)

// ListSessions lists all sessions matching the query, paginated.
func (api *API) ListSessions(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListSessions")
	defer span.End()

	if !api.FlagCheck(c, "sessions") {
		return
	}

	filter, page, apiErr := bindListQuery(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	sessions, total, err := api.store.Sessions.List(ctx, filter, page)
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	api.sendListHeaders(c, total)
	c.JSON(http.StatusOK, models.NewListResponse(sessions, page.Skip, page.Limit, total))
}

// GetSession gets a session by ID
func (api *API) GetSession(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetSession", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "sessions") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	session, err := api.store.Sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("session"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CreateSession handles adding a new session
func (api *API) CreateSession(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateSession")
	defer span.End()

	if !api.FlagCheck(c, "sessions") {
		return
	}

	var request models.AddSession
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	identity := api.CurrentIdentity(c)
	owner, rejection := policy.Decide(identity, request.OwnerID, nil)
	if rejection != nil {
		sendPolicyRejection(c, rejection)
		return
	}

	session := models.Session{
		Base:        models.NewBase(identity.ID, owner, time.Now().UTC()),
		Name:        request.Name,
		Description: request.Description,
	}
	if err := api.store.Sessions.Create(ctx, &session); err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("id", session.ID.Hex()),
	)
	c.JSON(http.StatusCreated, session)
}

// UpdateSession updates a session, replacing the session-specific fields
// wholesale with the payload values.
func (api *API) UpdateSession(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateSession", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "sessions") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	var request models.UpdateSession
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	session, err := api.store.Sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("session"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	identity := api.CurrentIdentity(c)
	owner, rejection := policy.Decide(identity, request.OwnerID, &session.OwnerID)
	if rejection != nil {
		sendPolicyRejection(c, rejection)
		return
	}

	session.Touch(identity.ID, owner, time.Now().UTC())
	session.Name = request.Name
	session.Description = request.Description

	if err := api.store.Sessions.Update(ctx, id, session); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("session"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession handles deleting an existing session. The response
// carries the deleted session's last known state.
func (api *API) DeleteSession(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteSession", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "sessions") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	session, err := api.store.Sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("session"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	if err := api.store.Sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("session"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
