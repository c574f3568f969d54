package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/convoflow/pkg/cmd"
	"github.com/dukex/convoflow/pkg/dispatcher"
	"github.com/dukex/convoflow/pkg/engine"
	"github.com/dukex/convoflow/pkg/eventbus"
	"github.com/dukex/convoflow/pkg/gateway"
	"github.com/dukex/convoflow/pkg/notifier"
	"github.com/dukex/convoflow/pkg/pending"
	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/scheduler"
	"github.com/dukex/convoflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

type serverConfig struct {
	DatabaseURL   string
	WaitStore     string
	EventBus      string
	KafkaBrokers  string
	Port          int
	WaitTimeout   time.Duration
	SweepSchedule string
	FanOut        engine.FanOutMode
}

// server owns every long-lived component of a running engine process.
type server struct {
	logger *slog.Logger
	config serverConfig

	persistence persistence.Persistence
	closeWaits  func() error
	bus         eventbus.EventBus
	notifier    *notifier.BusNotifier
	timers      *scheduler.Timers
	engine      *engine.Engine
	dispatcher  *dispatcher.Dispatcher
	sweeper     *scheduler.Sweeper
	app         *fiber.App
}

// newServer wires persistence, the event bus, the node registry, the engine,
// the dispatcher, the sweep job and the HTTP API. On error everything opened
// so far is closed again.
func newServer(ctx context.Context, logger *slog.Logger, tracer trace.Tracer, config serverConfig) (_ *server, err error) {
	s := &server{logger: logger, config: config, closeWaits: func() error { return nil }}

	defer func() {
		if err != nil {
			s.close(ctx)
		}
	}()

	s.persistence, err = cmd.NewPersistence(ctx, logger, config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	waitStore, closeWaits, err := cmd.NewWaitStore(ctx, logger, config.WaitStore, s.persistence)
	if err != nil {
		return nil, err
	}

	s.closeWaits = closeWaits
	waits := pending.NewRegistry(waitStore, logger)

	s.bus, err = cmd.NewEventBus(config.EventBus, config.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	collaborators := persistence.NewCollaborators(s.persistence)
	s.notifier = notifier.NewBusNotifier(s.bus, logger)

	registry := cmd.NewRegistry(logger, protocol.Dependencies{
		Contacts:      collaborators,
		Conversations: collaborators,
		Templates:     collaborators,
		Gateway:       gateway.NewBusGateway(s.bus, logger),
		Waits:         waits,
		Notifier:      s.notifier,
	})

	s.timers = scheduler.NewTimers()
	s.engine = engine.NewEngine(engine.Dependencies{
		Automations: s.persistence.Automations(),
		Executions:  s.persistence.Executions(),
		Nodes:       registry,
		Waits:       waits,
		Timers:      s.timers,
		Notifier:    s.notifier,
		Tracer:      tracer,
		Logger:      logger,
	}, engine.Config{
		FanOut:      config.FanOut,
		WaitTimeout: config.WaitTimeout,
	})

	s.dispatcher = dispatcher.NewDispatcher(s.persistence.Automations(), s.persistence.Executions(), s.engine, tracer, logger)

	err = s.dispatcher.Subscribe(s.bus)
	if err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	s.sweeper, err = scheduler.NewSweeper(config.SweepSchedule, s.engine.SweepExpired, logger)
	if err != nil {
		return nil, err
	}

	handlers := web.NewAPIHandlers(s.dispatcher, waits, registry, s.persistence,
		validator.New(validator.WithRequiredStructEnabled()))
	s.app = web.NewApp(handlers)

	return s, nil
}

// start restores state left by a previous process, then begins consuming
// events and sweeping expired waits.
func (s *server) start(ctx context.Context) error {
	report, err := s.engine.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover executions: %w", err)
	}

	s.logger.InfoContext(ctx, "Recovered executions",
		"pending_waits", report.Waits,
		"delays", report.Delays,
		"interrupted", report.Interrupted)

	err = s.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	return s.sweeper.Start(ctx)
}

// serve blocks on the HTTP listener until ctx is done.
func (s *server) serve(ctx context.Context) error {
	errs := make(chan error, 1)

	go func() {
		errs <- s.app.Listen(":"+strconv.Itoa(s.config.Port), fiber.ListenConfig{
			DisableStartupMessage: true,
		})
	}()

	s.logger.InfoContext(ctx, "HTTP API listening", "port", s.config.Port)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(shutdownCtx)
}

func (s *server) close(ctx context.Context) {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}

	if s.timers != nil {
		s.timers.Stop()
	}

	if s.notifier != nil {
		s.notifier.Close()
	}

	var errs []error

	if s.bus != nil {
		errs = append(errs, s.bus.Close())
	}

	errs = append(errs, s.closeWaits())

	if s.persistence != nil {
		errs = append(errs, s.persistence.Close(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to close resources", "error", err)
	}
}
