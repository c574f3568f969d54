package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/convoflow/pkg/cmd"
	"github.com/dukex/convoflow/pkg/log"
	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/protocol"
	cli "github.com/urfave/cli/v3"
)

var errInvalidAutomations = errors.New("invalid automations found")

type automationValidator interface {
	ValidateAutomation(automation *models.Automation) error
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate every stored automation against the registered node types",
		Flags: []cli.Flag{
			databaseURLFlag(),
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("convoflow-validate")

			p, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := p.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			automations, err := p.Automations().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch automations: %w", err)
			}

			logger.InfoContext(ctx, "Validating automations", "automations", len(automations))

			registry := cmd.NewRegistry(logger, protocol.Dependencies{})

			invalid := validateAutomations(os.Stdout, automations, registry)
			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalidAutomations, invalid, len(automations))
			}

			return nil
		},
	}
}

// validateAutomations prints one line per problem and returns the number of
// invalid automations.
func validateAutomations(w io.Writer, automations []*models.Automation, validator automationValidator) int {
	invalid := 0

	for _, automation := range automations {
		err := validator.ValidateAutomation(automation)
		if err == nil {
			_, _ = fmt.Fprintf(w, "%s (%s): valid\n", automation.Name, automation.ID)

			continue
		}

		invalid++

		for _, problem := range problems(err) {
			_, _ = fmt.Fprintf(w, "%s (%s): %v\n", automation.Name, automation.ID, problem)
		}
	}

	return invalid
}

func problems(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}

	return []error{err}
}
