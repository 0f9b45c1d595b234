package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/relayview-io/relayview/internal/database"
	"github.com/relayview-io/relayview/internal/fflags"
	"github.com/relayview-io/relayview/internal/handlers"
	"github.com/relayview-io/relayview/internal/routers"
	"github.com/relayview-io/relayview/internal/server"
	"github.com/relayview-io/relayview/internal/store"
)

func main() {
	app := &cli.Command{
		Name:  "devices-api",
		Usage: "The device resource API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("RELAY_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "listen",
				Value:   "0.0.0.0:8080",
				Usage:   "The address and port to listen for HTTP requests on",
				Sources: cli.EnvVars("RELAY_LISTEN"),
			},
			&cli.StringFlag{
				Name:    "oidc-url",
				Value:   "https://auth.relayview.local",
				Usage:   "Address of the oidc provider",
				Sources: cli.EnvVars("RELAY_OIDC_URL"),
			},
			&cli.StringFlag{
				Name:    "oidc-backchannel-url",
				Value:   "",
				Usage:   "Backend address of the oidc provider",
				Sources: cli.EnvVars("RELAY_OIDC_BACKCHANNEL"),
			},
			&cli.StringFlag{
				Name:    "oidc-audience",
				Value:   "relayview-api",
				Usage:   "Expected audience claim on bearer tokens",
				Sources: cli.EnvVars("RELAY_OIDC_AUDIENCE"),
			},
			&cli.BoolFlag{
				Name:    "insecure-tls",
				Value:   false,
				Usage:   "Trust any TLS certificate",
				Sources: cli.EnvVars("RELAY_INSECURE_TLS"),
			},
			&cli.StringFlag{
				Name:    "mongo-uri",
				Value:   "mongodb://mongo:27017",
				Usage:   "Connection string of the document store",
				Sources: cli.EnvVars("RELAY_MONGO_URI"),
			},
			&cli.StringFlag{
				Name:    "mongo-db",
				Value:   "relayview",
				Usage:   "Database name",
				Sources: cli.EnvVars("RELAY_MONGO_DB"),
			},
			&cli.StringSliceFlag{
				Name:    "origins",
				Usage:   "Trusted origins for browser clients",
				Sources: cli.EnvVars("RELAY_ORIGINS"),
			},
			&cli.IntFlag{
				Name:    "user-concurrency",
				Value:   16,
				Usage:   "Maximum concurrent requests per caller, 0 to disable",
				Sources: cli.EnvVars("RELAY_USER_CONCURRENCY"),
			},
			&cli.BoolFlag{
				Name:    "trace-insecure",
				Value:   false,
				Usage:   "Set OTLP endpoint to insecure mode",
				Sources: cli.EnvVars("RELAY_TRACE_INSECURE"),
			},
			&cli.StringFlag{
				Name:    "trace-endpoint",
				Value:   "",
				Usage:   "OTLP endpoint for trace data",
				Sources: cli.EnvVars("RELAY_TRACE_ENDPOINT_OTLP"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, _ = signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)

			logger := server.GetLogger(command.Bool("debug"))
			cleanup := server.InitTracer(logger.Sugar(), command.Bool("trace-insecure"), command.String("trace-endpoint"), "devices-api")
			defer func() {
				if cleanup == nil {
					return
				}
				if err := cleanup(ctx); err != nil {
					logger.Error(err.Error())
				}
			}()

			db, err := database.NewDatabase(ctx, logger.Sugar(), command.String("mongo-uri"), command.String("mongo-db"))
			if err != nil {
				log.Fatal(err)
			}
			if err := store.EnsureIndexes(ctx, db); err != nil {
				log.Fatal(err)
			}

			api := handlers.NewAPI(logger.Sugar(), store.NewMongo(db), fflags.NewFFlags(logger.Sugar()), nil)

			router, err := routers.NewAPIRouter(ctx, routers.APIRouterOptions{
				Logger:          logger.Sugar(),
				Api:             api,
				Service:         routers.DevicesService,
				OidcURL:         command.String("oidc-url"),
				OidcBackchannel: command.String("oidc-backchannel-url"),
				Audience:        command.String("oidc-audience"),
				InsecureTLS:     command.Bool("insecure-tls"),
				Origins:         command.StringSlice("origins"),
				UserConcurrency: int(command.Int("user-concurrency")),
			})
			if err != nil {
				log.Fatal(err)
			}

			if err := server.Serve(ctx, logger.Sugar(), command.String("listen"), router); err != nil {
				log.Fatal(err)
			}
			return nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
