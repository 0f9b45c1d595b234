package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relayview-io/relayview/internal/models"
	"github.com/relayview-io/relayview/internal/policy"
	"github.com/relayview-io/relayview/internal/store"
)

// notifyViewer emits a change event for a successful viewer mutation.
// The response is already fully determined at this point; delivery is
// best effort and never affects the handler result.
func (api *API) notifyViewer(c *gin.Context, name string, viewer *models.Viewer) {
	api.notifier.Send(models.Event{
		Name:     name,
		Token:    api.CurrentToken(c),
		ViewerID: viewer.ID.Hex(),
		Viewer:   *viewer,
	})
}

// ListViewers lists all viewers matching the query, paginated.
func (api *API) ListViewers(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListViewers")
	defer span.End()

	if !api.FlagCheck(c, "viewers") {
		return
	}

	filter, page, apiErr := bindListQuery(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	viewers, total, err := api.store.Viewers.List(ctx, filter, page)
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	api.sendListHeaders(c, total)
	c.JSON(http.StatusOK, models.NewListResponse(viewers, page.Skip, page.Limit, total))
}

// GetViewer gets a viewer by ID
func (api *API) GetViewer(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetViewer", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "viewers") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	viewer, err := api.store.Viewers.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("viewer"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewer)
}

// CreateViewer handles adding a new viewer and emits a "viewer created"
// event on success.
func (api *API) CreateViewer(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateViewer")
	defer span.End()

	if !api.FlagCheck(c, "viewers") {
		return
	}

	var request models.AddViewer
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	if request.SessionID == "" {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("sessionId"))
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(request.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewFieldValidationError("sessionId", "must be a valid id"))
		return
	}

	identity := api.CurrentIdentity(c)
	owner, rejection := policy.Decide(identity, request.OwnerID, nil)
	if rejection != nil {
		sendPolicyRejection(c, rejection)
		return
	}

	viewer := models.Viewer{
		Base:      models.NewBase(identity.ID, owner, time.Now().UTC()),
		Name:      request.Name,
		SessionID: sessionID,
	}
	if err := api.store.Viewers.Create(ctx, &viewer); err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("id", viewer.ID.Hex()),
	)
	c.JSON(http.StatusCreated, viewer)
	api.notifyViewer(c, models.EventViewerCreated, &viewer)
}

// UpdateViewer updates a viewer, replacing the viewer-specific fields
// wholesale, and emits a "viewer updated" event on success.
func (api *API) UpdateViewer(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateViewer", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "viewers") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	var request models.UpdateViewer
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	if request.SessionID == "" {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("sessionId"))
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(request.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewFieldValidationError("sessionId", "must be a valid id"))
		return
	}

	viewer, err := api.store.Viewers.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("viewer"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	identity := api.CurrentIdentity(c)
	owner, rejection := policy.Decide(identity, request.OwnerID, &viewer.OwnerID)
	if rejection != nil {
		sendPolicyRejection(c, rejection)
		return
	}

	viewer.Touch(identity.ID, owner, time.Now().UTC())
	viewer.Name = request.Name
	viewer.SessionID = sessionID

	if err := api.store.Viewers.Update(ctx, id, viewer); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("viewer"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewer)
	api.notifyViewer(c, models.EventViewerUpdated, viewer)
}

// DeleteViewer handles deleting an existing viewer. The response and the
// "viewer deleted" event both carry the pre-delete snapshot.
func (api *API) DeleteViewer(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteViewer", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "viewers") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	viewer, err := api.store.Viewers.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("viewer"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	if err := api.store.Viewers.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("viewer"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewer)
	api.notifyViewer(c, models.EventViewerDeleted, viewer)
}
