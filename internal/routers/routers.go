package routers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relayview-io/relayview/internal/handlers"
)

const name = "github.com/relayview-io/relayview/internal/routers"

// Service names a resource API a router can serve.
type Service string

const (
	DevicesService  Service = "devices"
	SessionsService Service = "sessions"
	ViewersService  Service = "viewers"
)

type APIRouterOptions struct {
	Logger          *zap.SugaredLogger
	Api             *handlers.API
	Service         Service
	OidcURL         string
	OidcBackchannel string
	Audience        string
	InsecureTLS     bool
	Origins         []string
	// UserConcurrency caps in-flight requests per caller; <= 0 disables
	// the limiter.
	UserConcurrency int
}

// NewAPIRouter assembles the gin engine for one service: tracing and
// panic recovery on everything, unauthenticated /health, and the
// service's resource routes behind JWT validation.
func NewAPIRouter(ctx context.Context, o APIRouterOptions) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	loggerMiddleware := ginzap.GinzapWithConfig(o.Logger.Desugar(), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{
				zap.String("traceID", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
			}
		},
	})

	r.Use(otelgin.Middleware(name, otelgin.WithPropagators(
		propagation.TraceContext{},
	)))
	r.Use(ginzap.RecoveryWithZap(o.Logger.Desugar(), true))

	if len(o.Origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = o.Origins
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		r.Use(cors.New(corsConfig))
	}

	newPrometheus(string(o.Service)).Use(r)

	// Don't log the health checks.
	r.GET("/health", o.Api.Health)

	private := r.Group("/", loggerMiddleware)
	{
		validateJWT, err := newValidateJWT(ctx, o)
		if err != nil {
			return nil, err
		}
		private.Use(validateJWT)

		if o.UserConcurrency > 0 {
			private.Use(NewConcurrencyLimits(o.UserConcurrency).Middleware())
		}

		api := o.Api

		// Feature Flags
		private.GET("/fflags", api.ListFeatureFlags)
		private.GET("/fflags/:name", api.GetFeatureFlag)

		switch o.Service {
		case DevicesService:
			private.GET("/devices", api.ListDevices)
			private.POST("/devices", api.CreateDevice)
			private.GET("/devices/:id", api.GetDevice)
			private.PUT("/devices/:id", api.UpdateDevice)
			private.DELETE("/devices/:id", api.DeleteDevice)
		case SessionsService:
			private.GET("/sessions", api.ListSessions)
			private.POST("/sessions", api.CreateSession)
			private.GET("/sessions/:id", api.GetSession)
			private.PUT("/sessions/:id", api.UpdateSession)
			private.DELETE("/sessions/:id", api.DeleteSession)
		case ViewersService:
			private.GET("/viewers", api.ListViewers)
			private.POST("/viewers", api.CreateViewer)
			private.GET("/viewers/:id", api.GetViewer)
			private.PUT("/viewers/:id", api.UpdateViewer)
			private.DELETE("/viewers/:id", api.DeleteViewer)
		default:
			return nil, fmt.Errorf("unknown service: %s", o.Service)
		}
	}

	return r, nil
}

func newValidateJWT(ctx context.Context, o APIRouterOptions) (func(*gin.Context), error) {
	if o.InsecureTLS {
		transport := &http.Transport{
			// #nosec -- G402: TLS InsecureSkipVerify set true.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		client := &http.Client{Transport: transport}
		ctx = oidc.ClientContext(ctx, client)
	}

	oidcURL := o.OidcURL
	if o.OidcBackchannel != "" {
		ctx = oidc.InsecureIssuerURLContext(ctx, o.OidcURL)
		oidcURL = o.OidcBackchannel
	}
	provider, err := oidc.NewProvider(ctx, oidcURL)
	if err != nil {
		return nil, err
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: o.Audience,
	})
	return ValidateJWT(o.Logger, verifier), nil
}

func newPrometheus(service string) *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus(service)
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := c.Request.URL.Path
		for _, p := range c.Params {
			if p.Key == "id" {
				url = strings.Replace(url, p.Value, ":id", 1)
				break
			}
		}
		return url
	}
	return p
}
