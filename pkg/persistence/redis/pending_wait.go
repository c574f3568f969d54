// Package redis provides a Redis-backed store for pending waits.
//
// Keys:
//
//	<prefix>wait:<conversation_id>  => JSON-encoded PendingWait
//	<prefix>idx:waits               => SET of conversation ids with a wait
//
// Inserts use SETNX so two executions can never hold a wait for the same
// conversation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const DefaultPrefix = "convoflow:"

// PendingWaitRepository implements persistence.PendingWaitRepository on Redis.
type PendingWaitRepository struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

var _ persistence.PendingWaitRepository = (*PendingWaitRepository)(nil)

func NewPendingWaitRepository(client redis.UniversalClient, prefix string, logger *slog.Logger) *PendingWaitRepository {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &PendingWaitRepository{
		client: client,
		prefix: prefix,
		logger: logger.With("module", "redis_pending_waits"),
	}
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func (r *PendingWaitRepository) keyWait(conversationID string) string {
	return r.prefix + "wait:" + conversationID
}

func (r *PendingWaitRepository) keyIndex() string {
	return r.prefix + "idx:waits"
}

func (r *PendingWaitRepository) Insert(ctx context.Context, wait *models.PendingWait) error {
	data, err := json.Marshal(wait)
	if err != nil {
		return fmt.Errorf("failed to marshal pending wait: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.keyWait(wait.ConversationID), data, 0).Result()
	if err != nil {
		return persistence.NewEntityError("Insert", "pending wait", wait.ConversationID, err)
	}

	if !created {
		return persistence.NewEntityError("Insert", "pending wait", wait.ConversationID, persistence.ErrPendingWaitExists)
	}

	err = r.client.SAdd(ctx, r.keyIndex(), wait.ConversationID).Err()
	if err != nil {
		return persistence.NewEntityError("Insert", "pending wait", wait.ConversationID, err)
	}

	return nil
}

func (r *PendingWaitRepository) Delete(ctx context.Context, conversationID string) error {
	pipe := r.client.TxPipeline()
	deleted := pipe.Del(ctx, r.keyWait(conversationID))
	pipe.SRem(ctx, r.keyIndex(), conversationID)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return persistence.NewEntityError("Delete", "pending wait", conversationID, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewEntityError("Delete", "pending wait", conversationID, persistence.ErrPendingWaitNotFound)
	}

	return nil
}

func (r *PendingWaitRepository) GetByConversation(ctx context.Context, conversationID string) (*models.PendingWait, error) {
	data, err := r.client.Get(ctx, r.keyWait(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = persistence.ErrPendingWaitNotFound
		}

		return nil, persistence.NewEntityError("GetByConversation", "pending wait", conversationID, err)
	}

	var wait models.PendingWait

	err = json.Unmarshal(data, &wait)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending wait %s: %w", conversationID, err)
	}

	return &wait, nil
}

// List returns every stored wait. Index entries whose key has vanished are
// pruned along the way.
func (r *PendingWaitRepository) List(ctx context.Context) ([]*models.PendingWait, error) {
	ids, err := r.client.SMembers(ctx, r.keyIndex()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending waits: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keyWait(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load pending waits: %w", err)
	}

	waits := make([]*models.PendingWait, 0, len(values))

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			err := r.client.SRem(ctx, r.keyIndex(), ids[i]).Err()
			if err != nil {
				r.logger.WarnContext(ctx, "failed to prune pending wait index", "conversation_id", ids[i], "error", err)
			}

			continue
		}

		var wait models.PendingWait

		err := json.Unmarshal([]byte(raw), &wait)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending wait %s: %w", ids[i], err)
		}

		waits = append(waits, &wait)
	}

	return waits, nil
}
