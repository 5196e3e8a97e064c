// Package viewmodel holds the per-screen state of the clinic front-ends: the
// loaded data, loading and submitting flags and the last error. A screen
// keeps its previous data when a reload fails, refuses a second submission
// while one is in flight and ignores responses that arrive after it has
// been disposed.
package viewmodel

import (
	"context"
	"errors"
	"sync"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
)

var (
	ErrBusy     = errors.New("request already in progress")
	ErrDisposed = errors.New("screen disposed")
)

// Snapshot is a copy of a screen's state at one moment.
type Snapshot[T any] struct {
	Data       T
	Loaded     bool
	Loading    bool
	Submitting bool
	Error      string
}

// Screen owns the state of one screen. The zero value is ready to use.
type Screen[T any] struct {
	mu         sync.Mutex
	data       T
	loaded     bool
	loading    bool
	submitting bool
	disposed   bool
	err        error
	generation uint64
}

// Load fetches fresh data. On failure the previous data stays in place and
// the error is recorded. If a newer Load started meanwhile, or the screen
// was disposed, the result is dropped.
func (s *Screen[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	data, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	if gen != s.generation {
		return err
	}
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.data = data
	s.loaded = true
	s.err = nil
	return nil
}

// Submit runs action unless another submission is in flight, in which case
// it returns ErrBusy without calling action.
func (s *Screen[T]) Submit(ctx context.Context, action func(context.Context) error) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.submitting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.submitting = true
	s.mu.Unlock()

	err := action(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if s.disposed {
		return err
	}
	if err != nil {
		s.err = err
	}
	return err
}

// Dispose marks the screen as gone. Later results are discarded.
func (s *Screen[T]) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}

func (s *Screen[T]) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Screen[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot[T]{
		Data:       s.data,
		Loaded:     s.loaded,
		Loading:    s.loading,
		Submitting: s.submitting,
	}
	if s.err != nil {
		snap.Error = apperror.UserMessage(s.err)
	}
	return snap
}
