// Package postgresql provides PostgreSQL persistence for automations and executions.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/dukex/convoflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	automations   *AutomationRepository
	executions    *ExecutionRepository
	pendingWaits  *PendingWaitRepository
	contacts      *ContactRepository
	conversations *ConversationRepository
	templates     *TemplateRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		automations:   &AutomationRepository{db: database, logger: logger},
		executions:    &ExecutionRepository{db: database, logger: logger},
		pendingWaits:  &PendingWaitRepository{db: database},
		contacts:      &ContactRepository{db: database},
		conversations: &ConversationRepository{db: database},
		templates:     &TemplateRepository{db: database},
	}, nil
}

func (p *Persistence) Automations() persistence.AutomationRepository     { return p.automations }
func (p *Persistence) Executions() persistence.ExecutionRepository       { return p.executions }
func (p *Persistence) PendingWaits() persistence.PendingWaitRepository   { return p.pendingWaits }
func (p *Persistence) Contacts() persistence.ContactRepository           { return p.contacts }
func (p *Persistence) Conversations() persistence.ConversationRepository { return p.conversations }
func (p *Persistence) Templates() persistence.TemplateRepository         { return p.templates }

// DB exposes the underlying connection pool.
func (p *Persistence) DB() *sql.DB {
	return p.db
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func marshalJSON(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}

	return data, nil
}

func unmarshalJSON(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}

	err := json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
