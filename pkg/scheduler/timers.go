// Package scheduler owns the time-driven parts of the engine: cancellable
// one-shot timers for delay nodes and the periodic pending-wait sweep.
package scheduler

import (
	"sync"
	"time"
)

// Timers holds the pending one-shot timers of executions, at most one per
// (execution, node) pair.
type Timers struct {
	mu      sync.Mutex
	timers  map[string]map[string]*entry
	stopped bool
}

// entry identifies one scheduled timer; callbacks compare entries, never
// timer handles.
type entry struct {
	timer *time.Timer
}

func NewTimers() *Timers {
	return &Timers{timers: make(map[string]map[string]*entry)}
}

// Schedule runs fn after delay unless cancelled first. A timer already
// scheduled for the same execution and node is replaced. It returns false
// once Stop was called.
func (t *Timers) Schedule(executionID, nodeID string, delay time.Duration, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}

	byNode, ok := t.timers[executionID]
	if !ok {
		byNode = make(map[string]*entry)
		t.timers[executionID] = byNode
	}

	if existing, ok := byNode[nodeID]; ok {
		existing.timer.Stop()
	}

	e := &entry{}
	byNode[nodeID] = e

	// e.timer is only read under t.mu.
	e.timer = time.AfterFunc(delay, func() {
		if !t.release(executionID, nodeID, e) {
			return
		}

		fn()
	})

	return true
}

// release forgets e if it is still the entry registered for the pair.
func (t *Timers) release(executionID, nodeID string, e *entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	byNode, ok := t.timers[executionID]
	if !ok || byNode[nodeID] != e {
		return false
	}

	delete(byNode, nodeID)

	if len(byNode) == 0 {
		delete(t.timers, executionID)
	}

	return true
}

// Cancel stops every timer of executionID and returns how many were pending.
func (t *Timers) Cancel(executionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	byNode := t.timers[executionID]
	for _, e := range byNode {
		e.timer.Stop()
	}

	delete(t.timers, executionID)

	return len(byNode)
}

// Has reports whether executionID has a pending timer.
func (t *Timers) Has(executionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.timers[executionID]) > 0
}

// Len returns the number of pending timers.
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, byNode := range t.timers {
		n += len(byNode)
	}

	return n
}

// Stop cancels every pending timer and rejects new ones.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true

	for executionID, byNode := range t.timers {
		for _, e := range byNode {
			e.timer.Stop()
		}

		delete(t.timers, executionID)
	}
}
