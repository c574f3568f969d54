// Package file provides file-based persistence for automations and executions.
// Every entity is stored as one JSON document under the root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/convoflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root string
	// mu serialises read-modify-write cycles across repositories.
	mu sync.Mutex

	automations   *AutomationRepository
	executions    *ExecutionRepository
	pendingWaits  *PendingWaitRepository
	contacts      *ContactRepository
	conversations *ConversationRepository
	templates     *TemplateRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.automations = &AutomationRepository{p: p}
	p.executions = &ExecutionRepository{p: p}
	p.pendingWaits = &PendingWaitRepository{p: p}
	p.contacts = &ContactRepository{p: p}
	p.conversations = &ConversationRepository{p: p}
	p.templates = &TemplateRepository{p: p}

	return p
}

func (p *Persistence) Automations() persistence.AutomationRepository     { return p.automations }
func (p *Persistence) Executions() persistence.ExecutionRepository       { return p.executions }
func (p *Persistence) PendingWaits() persistence.PendingWaitRepository   { return p.pendingWaits }
func (p *Persistence) Contacts() persistence.ContactRepository           { return p.contacts }
func (p *Persistence) Conversations() persistence.ConversationRepository { return p.conversations }
func (p *Persistence) Templates() persistence.TemplateRepository         { return p.templates }

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// validateID rejects identifiers that would escape the collection directory.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", persistence.ErrInvalidID)
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q contains invalid characters", persistence.ErrInvalidID, id)
	}

	return nil
}

func (p *Persistence) path(collection, id string) string {
	return filepath.Join(p.root, collection, id+".json")
}

func (p *Persistence) readJSON(collection, id string, target any) error {
	err := validateID(id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(p.path(collection, id))
	if err != nil {
		return err
	}

	err = json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", collection, id, err)
	}

	return nil
}

func (p *Persistence) writeJSON(collection, id string, value any) error {
	err := validateID(id)
	if err != nil {
		return err
	}

	dir := filepath.Join(p.root, collection)

	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", collection, id, err)
	}

	tmp := p.path(collection, id) + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", collection, id, err)
	}

	return os.Rename(tmp, p.path(collection, id))
}

// createJSON writes value only when no document exists for id.
func (p *Persistence) createJSON(collection, id string, value any) (bool, error) {
	err := validateID(id)
	if err != nil {
		return false, err
	}

	err = os.MkdirAll(filepath.Join(p.root, collection), 0750)
	if err != nil {
		return false, fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s %s: %w", collection, id, err)
	}

	f, err := os.OpenFile(p.path(collection, id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to create %s %s: %w", collection, id, err)
	}

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return false, fmt.Errorf("failed to write %s %s: %w", collection, id, err)
	}

	return true, nil
}

func (p *Persistence) remove(collection, id string) error {
	err := validateID(id)
	if err != nil {
		return err
	}

	return os.Remove(p.path(collection, id))
}

// ids lists document ids of a collection in lexical order.
func (p *Persistence) ids(collection string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s directory: %w", collection, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	sort.Strings(ids)

	return ids, nil
}

// readAll decodes every document of a collection.
func readAll[T any](p *Persistence, collection string) ([]*T, error) {
	ids, err := p.ids(collection)
	if err != nil {
		return nil, err
	}

	items := make([]*T, 0, len(ids))

	for _, id := range ids {
		item := new(T)

		err := p.readJSON(collection, id, item)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

// notFound maps a missing file to sentinel, leaving other errors untouched.
func notFound(err, sentinel error) error {
	if errors.Is(err, os.ErrNotExist) {
		return sentinel
	}

	return err
}
