package tracker

import (
	"sync"
	"time"
)

// ExtractionState is where a driver's receipt upload stands
type ExtractionState string

const (
	ExtractionIdle       ExtractionState = "idle"
	ExtractionExtracting ExtractionState = "extracting"
	ExtractionFailed     ExtractionState = "failed"
)

// ExtractionStatus is reported to the client so it can show progress or the last failure
type ExtractionStatus struct {
	State     ExtractionState `json:"state"`
	Error     string          `json:"error,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// extractionGuard allows one extraction in flight per user:
// idle -> extracting -> idle | failed, and failed -> extracting on retry.
type extractionGuard struct {
	mu       sync.Mutex
	statuses map[string]ExtractionStatus
	now      func() time.Time
	describe func(error) (string, string)
}

func newExtractionGuard(now func() time.Time, describe func(error) (string, string)) *extractionGuard {
	return &extractionGuard{
		statuses: make(map[string]ExtractionStatus),
		now:      now,
		describe: describe,
	}
}

// begin moves the user to extracting, ErrExtractionInProgress if already there
func (g *extractionGuard) begin(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.statuses[userID].State == ExtractionExtracting {
		return ErrExtractionInProgress
	}
	g.statuses[userID] = ExtractionStatus{State: ExtractionExtracting, UpdatedAt: g.now()}
	return nil
}

// finish ends the in-flight extraction with its outcome
func (g *extractionGuard) finish(userID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		g.statuses[userID] = ExtractionStatus{State: ExtractionIdle, UpdatedAt: g.now()}
		return
	}
	message, kind := g.describe(err)
	g.statuses[userID] = ExtractionStatus{
		State:     ExtractionFailed,
		Error:     message,
		Kind:      kind,
		UpdatedAt: g.now(),
	}
}

func (g *extractionGuard) status(userID string) ExtractionStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.statuses[userID]
	if !ok {
		return ExtractionStatus{State: ExtractionIdle}
	}
	return st
}

// keyedMutex serializes work per key, here the read-modify-write of a user's history
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
