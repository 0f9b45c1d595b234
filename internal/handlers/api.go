package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/relayview-io/relayview/internal/events"
	"github.com/relayview-io/relayview/internal/fflags"
	"github.com/relayview-io/relayview/internal/models"
	"github.com/relayview-io/relayview/internal/store"
	"github.com/relayview-io/relayview/internal/util"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/relayview-io/relayview/internal/handlers")
}

// Context keys set by the auth middleware.
const (
	AuthIdentityKey = "_relayview.Identity"
	AuthTokenKey    = "_relayview.Token"
)

type API struct {
	logger   *zap.SugaredLogger
	store    store.Store
	fflags   *fflags.FFlags
	notifier events.Notifier
}

func NewAPI(
	logger *zap.SugaredLogger,
	st store.Store,
	fflags *fflags.FFlags,
	notifier events.Notifier,
) *API {
	fflags.RegisterEnvFlag("devices", "RELAY_FFLAG_DEVICES", true)
	fflags.RegisterEnvFlag("sessions", "RELAY_FFLAG_SESSIONS", true)
	fflags.RegisterEnvFlag("viewers", "RELAY_FFLAG_VIEWERS", true)

	if notifier == nil {
		notifier = events.NoopNotifier{}
	}

	return &API{
		logger:   logger,
		store:    st,
		fflags:   fflags,
		notifier: notifier,
	}
}

func (api *API) Logger(ctx context.Context) *zap.SugaredLogger {
	return util.WithTrace(ctx, api.logger)
}

func (api *API) SendInternalServerError(c *gin.Context, err error) {
	SendInternalServerError(c, api.logger, err)
}

func SendInternalServerError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	ctx := c.Request.Context()
	util.WithTrace(ctx, logger).Errorw("internal server error", "error", err)

	result := models.InternalServerError{
		BaseError: models.BaseError{
			Error: "internal server error",
		},
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		result.TraceId = sc.TraceID().String()
	}
	c.JSON(http.StatusInternalServerError, result)
}

// CurrentIdentity returns the verified caller identity placed in the
// request context by the auth middleware.
func (api *API) CurrentIdentity(c *gin.Context) models.Identity {
	value, found := c.Get(AuthIdentityKey)
	if !found {
		api.SendInternalServerError(c, fmt.Errorf("no current identity found"))
		panic("no current identity found")
	}
	return value.(models.Identity)
}

// CurrentToken returns the caller's raw bearer token; it is forwarded in
// viewer change events.
func (api *API) CurrentToken(c *gin.Context) string {
	value, found := c.Get(AuthTokenKey)
	if !found {
		return ""
	}
	return value.(string)
}

func (api *API) FlagCheck(c *gin.Context, name string) bool {
	enabled, err := api.fflags.GetFlag(name)
	if err != nil {
		api.SendInternalServerError(c, err)
		return false
	}
	if !enabled {
		c.JSON(http.StatusMethodNotAllowed, models.NewNotAllowedError(fmt.Sprintf("%s support is disabled", name)))
		return false
	}
	return enabled
}
