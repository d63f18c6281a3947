// Package tables holds the read-only lookup tables the resolver depends on,
// each behind an explicit Uninitialized -> Loading -> Ready lifecycle.
package tables

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrTableNotLoaded = errors.New("table not loaded")
	ErrLoadInFlight   = errors.New("load already in flight")
)

type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "uninitialized"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Table is one immutable dataset plus its load state. Once Ready it stays
// Ready; a reload swaps in a complete replacement.
type Table[T any] struct {
	name string

	mu       sync.RWMutex
	state    State
	value    T
	err      error
	loadedAt time.Time
	version  int
	inflight bool
	ready    chan struct{}
}

func New[T any](name string) *Table[T] {
	return &Table[T]{name: name, ready: make(chan struct{})}
}

func (t *Table[T]) Name() string { return t.name }

// Begin marks the table as loading. It returns false when a load is
// already in flight. A Ready table keeps serving its current value.
func (t *Table[T]) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inflight {
		return false
	}
	t.inflight = true
	if t.state != Ready {
		t.state = Loading
	}
	t.err = nil
	return true
}

// Publish installs a finished value and wakes every waiter.
func (t *Table[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = false
	t.value = v
	t.err = nil
	t.loadedAt = time.Now()
	t.version++
	if t.state != Ready {
		t.state = Ready
		close(t.ready)
	}
}

// Fail records a load error. A table that was already Ready keeps its
// previous value.
func (t *Table[T]) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = false
	t.err = err
	if t.state != Ready {
		t.state = Failed
	}
}

// Get returns the current value or ErrTableNotLoaded.
func (t *Table[T]) Get() (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state != Ready {
		var zero T
		if t.err != nil {
			return zero, fmt.Errorf("%w: %s: %v", ErrTableNotLoaded, t.name, t.err)
		}
		return zero, fmt.Errorf("%w: %s", ErrTableNotLoaded, t.name)
	}
	return t.value, nil
}

// Wait blocks until the table is Ready or ctx is done.
func (t *Table[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.ready:
		return t.Get()
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %s: %v", ErrTableNotLoaded, t.name, ctx.Err())
	}
}

// InFlight reports whether a load has begun and not yet published or failed.
func (t *Table[T]) InFlight() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inflight
}

func (t *Table[T]) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Status is a point-in-time view of a table for /status.
type Status struct {
	Name     string    `json:"name"`
	State    State     `json:"state"`
	Version  int       `json:"version"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
	Error    string    `json:"error,omitempty"`
}

func (t *Table[T]) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Status{Name: t.name, State: t.state, Version: t.version, LoadedAt: t.loadedAt}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	return s
}

// Version increments on every publish.
func (t *Table[T]) Version() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// LoadedAt is the time of the last successful publish.
func (t *Table[T]) LoadedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadedAt
}
