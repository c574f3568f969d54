// Package pending keeps the executions that are parked waiting for a reply,
// at most one per conversation. The in-memory table is a cache in front of a
// durable persistence.PendingWaitRepository.
package pending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
)

var (
	// ErrWaitConflict is returned when a conversation already has an outstanding wait.
	ErrWaitConflict = errors.New("conversation already has a pending wait")

	ErrNoPendingWait = errors.New("no pending wait for conversation")
)

// Registry is safe for concurrent use. Store I/O happens outside the lock.
type Registry struct {
	mu     sync.Mutex
	waits  map[string]*models.PendingWait
	store  persistence.PendingWaitRepository
	logger *slog.Logger
}

// NewRegistry creates a registry. A nil store keeps waits in memory only.
func NewRegistry(store persistence.PendingWaitRepository, logger *slog.Logger) *Registry {
	return &Registry{
		waits:  make(map[string]*models.PendingWait),
		store:  store,
		logger: logger.With("module", "pending_registry"),
	}
}

// Register parks wait for its conversation. It never replaces an existing
// wait: a second registration fails with ErrWaitConflict.
func (r *Registry) Register(ctx context.Context, wait *models.PendingWait) error {
	conversationID := wait.ConversationID
	if conversationID == "" {
		return errors.New("pending wait requires a conversation id")
	}

	r.mu.Lock()
	if existing, ok := r.waits[conversationID]; ok {
		r.mu.Unlock()

		return fmt.Errorf("%w: conversation %s is held by execution %s", ErrWaitConflict, conversationID, existing.ExecutionID)
	}

	r.waits[conversationID] = wait
	r.mu.Unlock()

	if r.store == nil {
		return nil
	}

	err := r.store.Insert(ctx, wait)
	if err != nil {
		r.mu.Lock()
		if r.waits[conversationID] == wait {
			delete(r.waits, conversationID)
		}
		r.mu.Unlock()

		if persistence.IsPendingWaitExists(err) {
			return fmt.Errorf("%w: conversation %s", ErrWaitConflict, conversationID)
		}

		return fmt.Errorf("failed to persist pending wait: %w", err)
	}

	// The wait may have been taken while the insert was in flight.
	r.mu.Lock()
	current := r.waits[conversationID]
	r.mu.Unlock()

	if current != wait {
		r.deleteFromStore(ctx, conversationID)
	}

	return nil
}

// Get returns the outstanding wait of a conversation.
func (r *Registry) Get(conversationID string) (*models.PendingWait, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wait, ok := r.waits[conversationID]

	return wait, ok
}

// Take atomically looks up and removes the wait of a conversation. Only one
// of several concurrent callers receives it.
func (r *Registry) Take(ctx context.Context, conversationID string) (*models.PendingWait, bool) {
	r.mu.Lock()
	wait, ok := r.waits[conversationID]
	delete(r.waits, conversationID)
	r.mu.Unlock()

	if ok {
		r.deleteFromStore(ctx, conversationID)
	}

	return wait, ok
}

// Remove drops the wait of a conversation.
func (r *Registry) Remove(ctx context.Context, conversationID string) error {
	_, ok := r.Take(ctx, conversationID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPendingWait, conversationID)
	}

	return nil
}

// List returns a snapshot of all waits, oldest first.
func (r *Registry) List() []*models.PendingWait {
	r.mu.Lock()
	waits := make([]*models.PendingWait, 0, len(r.waits))

	for _, wait := range r.waits {
		waits = append(waits, wait)
	}
	r.mu.Unlock()

	sort.Slice(waits, func(i, j int) bool {
		return waits[i].CreatedAt.Before(waits[j].CreatedAt)
	})

	return waits
}

// Len returns the number of outstanding waits.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.waits)
}

// TakeExpired removes and returns every wait older than threshold at now.
func (r *Registry) TakeExpired(ctx context.Context, now time.Time, threshold time.Duration) []*models.PendingWait {
	var expired []*models.PendingWait

	r.mu.Lock()
	for conversationID, wait := range r.waits {
		if wait.Expired(now, threshold) {
			expired = append(expired, wait)
			delete(r.waits, conversationID)
		}
	}
	r.mu.Unlock()

	for _, wait := range expired {
		r.deleteFromStore(ctx, wait.ConversationID)
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CreatedAt.Before(expired[j].CreatedAt)
	})

	return expired
}

// HasExecution reports whether executionID holds any wait.
func (r *Registry) HasExecution(executionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, wait := range r.waits {
		if wait.ExecutionID == executionID {
			return true
		}
	}

	return false
}

// Recover loads the waits persisted by a previous process into the cache.
func (r *Registry) Recover(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}

	waits, err := r.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending waits: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recovered := 0

	for _, wait := range waits {
		if _, ok := r.waits[wait.ConversationID]; ok {
			continue
		}

		r.waits[wait.ConversationID] = wait
		recovered++
	}

	return recovered, nil
}

func (r *Registry) deleteFromStore(ctx context.Context, conversationID string) {
	if r.store == nil {
		return
	}

	err := r.store.Delete(ctx, conversationID)
	if err != nil && !persistence.IsPendingWaitNotFound(err) {
		r.logger.ErrorContext(ctx, "failed to delete pending wait from store",
			"conversation_id", conversationID, "error", err)
	}
}
