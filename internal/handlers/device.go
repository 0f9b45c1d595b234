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

// parseSessionIDs validates the payload's session references and removes
// duplicates while preserving first-seen order.
func parseSessionIDs(raw []string) ([]primitive.ObjectID, *ApiResponseError) {
	seen := make(map[primitive.ObjectID]struct{}, len(raw))
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, value := range raw {
		id, err := primitive.ObjectIDFromHex(value)
		if err != nil {
			return nil, NewApiResponseError(http.StatusBadRequest,
				models.NewFieldValidationError("sessionIds", "must contain valid ids"))
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListDevices lists all devices matching the query, paginated.
func (api *API) ListDevices(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListDevices")
	defer span.End()

	if !api.FlagCheck(c, "devices") {
		return
	}

	filter, page, apiErr := bindListQuery(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	devices, total, err := api.store.Devices.List(ctx, filter, page)
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	api.sendListHeaders(c, total)
	c.JSON(http.StatusOK, models.NewListResponse(devices, page.Skip, page.Limit, total))
}

// GetDevice gets a device by ID
func (api *API) GetDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetDevice", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "devices") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	device, err := api.store.Devices.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("device"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// CreateDevice handles adding a new device
func (api *API) CreateDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateDevice")
	defer span.End()

	if !api.FlagCheck(c, "devices") {
		return
	}

	var request models.AddDevice
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	sessionIDs, apiErr := parseSessionIDs(request.SessionIDs)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	identity := api.CurrentIdentity(c)
	owner, rejection := policy.Decide(identity, request.OwnerID, nil)
	if rejection != nil {
		sendPolicyRejection(c, rejection)
		return
	}

	device := models.Device{
		Base:        models.NewBase(identity.ID, owner, time.Now().UTC()),
		Name:        request.Name,
		Description: request.Description,
		SessionIDs:  sessionIDs,
	}
	if err := api.store.Devices.Create(ctx, &device); err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("id", device.ID.Hex()),
	)
	c.JSON(http.StatusCreated, device)
}

// UpdateDevice updates a device. The device-specific fields are replaced
// wholesale with the payload values; fields absent from the request are
// cleared.
func (api *API) UpdateDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateDevice", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "devices") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	var request models.UpdateDevice
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	sessionIDs, apiErr := parseSessionIDs(request.SessionIDs)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	device, err := api.store.Devices.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("device"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	identity := api.CurrentIdentity(c)
	owner, rejection := policy.Decide(identity, request.OwnerID, &device.OwnerID)
	if rejection != nil {
		sendPolicyRejection(c, rejection)
		return
	}

	device.Touch(identity.ID, owner, time.Now().UTC())
	device.Name = request.Name
	device.Description = request.Description
	device.SessionIDs = sessionIDs

	if err := api.store.Devices.Update(ctx, id, device); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("device"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// DeleteDevice handles deleting an existing device. The response carries
// the deleted device's last known state.
func (api *API) DeleteDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteDevice", trace.WithAttributes(
		attribute.String("id", c.Param("id")),
	))
	defer span.End()

	if !api.FlagCheck(c, "devices") {
		return
	}

	id, apiErr := pathID(c)
	if apiErr != nil {
		c.JSON(apiErr.Status, apiErr.Body)
		return
	}

	device, err := api.store.Devices.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("device"))
		return
	}
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	if err := api.store.Devices.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("device"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}
