package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/convoflow/pkg/cmd"
	"github.com/dukex/convoflow/pkg/engine"
	"github.com/dukex/convoflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the engine, the event consumers and the HTTP API",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:    "wait-store",
				Usage:   "Store for pending waits (database or redis://host:port/db)",
				Value:   "database",
				Sources: cli.EnvVars("WAIT_STORE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "kafka:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.DurationFlag{
				Name:    "wait-timeout",
				Usage:   "Age after which an unanswered question fails its execution",
				Value:   engine.DefaultWaitTimeout,
				Sources: cli.EnvVars("WAIT_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule of the expired wait sweep",
				Value:   "@every 1m",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "fan-out",
				Usage:   "Edges followed after a node with several targets (all, first)",
				Value:   string(engine.FanOutAll),
				Sources: cli.EnvVars("FAN_OUT_MODE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("convoflow")

			fanOut, err := engine.ParseFanOutMode(command.String("fan-out"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracer, shutdownTracer, err := cmd.NewTracer(ctx, command.Bool("tracing"), "convoflow")
			if err != nil {
				return err
			}

			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()

				if err := shutdownTracer(shutdownCtx); err != nil {
					logger.Error("Failed to shutdown tracer provider", "error", err)
				}
			}()

			logger.InfoContext(ctx, "Initializing convoflow")

			srv, err := newServer(ctx, logger, tracer, serverConfig{
				DatabaseURL:   command.String("database-url"),
				WaitStore:     command.String("wait-store"),
				EventBus:      command.String("event-bus"),
				KafkaBrokers:  command.String("kafka-brokers"),
				Port:          int(command.Int("port")),
				WaitTimeout:   command.Duration("wait-timeout"),
				SweepSchedule: command.String("sweep-schedule"),
				FanOut:        fanOut,
			})
			if err != nil {
				return err
			}

			defer srv.close(context.WithoutCancel(ctx))

			err = srv.start(ctx)
			if err != nil {
				return err
			}

			err = srv.serve(ctx)
			logger.Info("Shutting down convoflow")

			return err
		},
	}
}
