// Package server carries the startup and shutdown plumbing shared by the
// three service binaries: logger construction, tracer wiring, and the
// HTTP serve loop with graceful shutdown.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.18.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/credentials"

	"github.com/relayview-io/relayview/internal/util"
)

const shutdownTimeout = 5 * time.Second

// GetLogger builds the process logger; debug lowers the level.
func GetLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logConfig := zap.NewProductionConfig()
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		logger, err = logConfig.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	return logger
}

// InitTracer installs the OTLP trace exporter when a collector endpoint
// is configured; without one, spans are sampled but not exported. The
// returned cleanup flushes the exporter and may be nil.
func InitTracer(logger *zap.SugaredLogger, insecure bool, collector string, serviceName string) func(context.Context) error {
	if collector == "" {
		logger.Info("No collector endpoint configured")
		otel.SetTracerProvider(
			sdktrace.NewTracerProvider(
				sdktrace.WithSampler(sdktrace.AlwaysSample()),
			),
		)
		return nil
	}
	secureOption := otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, ""))
	if insecure {
		secureOption = otlptracegrpc.WithInsecure()
	}
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			secureOption,
			otlptracegrpc.WithEndpoint(collector),
		),
	)
	if err != nil {
		logger.Errorf("Unable to create open telemetry exporter: %s", err.Error())
		return nil
	}

	deployEnvironment := os.Getenv("RELAY_ENVIRONMENT")
	if deployEnvironment == "" {
		deployEnvironment = "development"
	}

	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(deployEnvironment),
		),
	)
	if err != nil {
		logger.Errorf("Unable to create resources: %s", err.Error())
		return nil
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown
}

// Serve runs the HTTP server until ctx is done or the listener fails,
// then attempts a bounded graceful shutdown.
func Serve(ctx context.Context, logger *zap.SugaredLogger, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	defer util.IgnoreError(httpServer.Close)

	serveErrors := make(chan error, 1)
	wg := &sync.WaitGroup{}
	util.GoWithWaitGroup(wg, func() {
		logger.Infow("listening", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrors <- err
		}
	})

	var err error
	select {
	case err = <-serveErrors:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		util.IgnoreError(func() error { return httpServer.Shutdown(shutdownCtx) })
	}

	wg.Wait()
	return err
}
