package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		err := persistence.NewEntityError("GetByID", "automation", "auto-1", persistence.ErrAutomationNotFound)

		assert.True(t, persistence.IsAutomationNotFound(err))
		assert.True(t, persistence.IsNotFound(err))
		assert.False(t, persistence.IsExecutionNotFound(err))
		assert.True(t, errors.Is(err, persistence.ErrAutomationNotFound))
	})

	t.Run("pending wait conflict is not a not-found error", func(t *testing.T) {
		err := persistence.NewEntityError("Insert", "pending wait", "conv-1", persistence.ErrPendingWaitExists)

		assert.True(t, persistence.IsPendingWaitExists(err))
		assert.False(t, persistence.IsNotFound(err))
	})

	t.Run("entity error contains context", func(t *testing.T) {
		err := persistence.NewEntityError("UpdateStatus", "execution", "exec-123", persistence.ErrExecutionNotFound)

		assert.Contains(t, err.Error(), "UpdateStatus")
		assert.Contains(t, err.Error(), "execution exec-123")
		assert.Contains(t, err.Error(), "execution not found")
	})
}
