package flux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

var ErrPanic = errors.New("promise panicked")

// Dispatcher is the handle thunks and consumers use to read and change the state
type Dispatcher[S any] interface {
	Dispatch(action Action)
	Run(thunk Thunk[S])
	State() S
}

// Thunk is a unit of work that may read the state and dispatch any number of actions.
// It runs while the store is locked, so it must use the Dispatcher it is given and never the store itself.
type Thunk[S any] func(d Dispatcher[S])

type listener struct {
	id uint64
	fn func()
}

// Store owns a state value and applies every change to it one at a time.
//
// Listeners are called after the outermost Dispatch or Run returns, outside the lock. Changes made
// while listeners are being called are folded into a new round of notifications instead of
// recursing into the listeners.
type Store[S any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	reduce ReduceFunc[S]

	mu     sync.Mutex
	state  S
	closed bool

	paused   atomic.Bool
	inflight sync.WaitGroup

	listenersMu   sync.Mutex
	listeners     []listener
	nextListener  uint64
	notifying     bool
	notifyPending bool
}

func NewStore[S any](ctx context.Context, reduce ReduceFunc[S], initial S, logger *slog.Logger) *Store[S] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Store[S]{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		reduce: reduce,
		state:  initial,
	}
}

func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store[S]) Dispatch(action Action) {
	if s.paused.Load() {
		s.logger.Debug("Dropping action while paused", "type", action.Type)
		return
	}
	s.transaction(func(tx *txn[S]) {
		tx.Dispatch(action)
	})
}

func (s *Store[S]) Run(thunk Thunk[S]) {
	if s.paused.Load() {
		s.logger.Debug("Dropping thunk while paused")
		return
	}
	s.transaction(func(tx *txn[S]) {
		thunk(tx)
	})
}

// Subscribe registers a listener called after every change. The returned func removes it.
func (s *Store[S]) Subscribe(fn func()) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool {
				return l.id == id
			})
		})
	}
}

// Pause drops every dispatch until Resume is called, settlements of running promises included
func (s *Store[S]) Pause() {
	s.paused.Store(true)
	s.logger.Info("Store paused")
}

func (s *Store[S]) Resume() {
	s.paused.Store(false)
	s.logger.Info("Store resumed")
}

func (s *Store[S]) Paused() bool {
	return s.paused.Load()
}

// Wait blocks until all running promises have settled
func (s *Store[S]) Wait() {
	s.inflight.Wait()
}

// Close cancels running promises and waits for them. Their settlements and later dispatches are dropped.
func (s *Store[S]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.inflight.Wait()
}

func (s *Store[S]) transaction(fn func(tx *txn[S])) {
	changed := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return false
		}

		tx := &txn[S]{store: s}
		fn(tx)
		return tx.dirty
	}()

	if changed {
		s.notify()
	}
}

func (s *Store[S]) notify() {
	s.listenersMu.Lock()
	s.notifyPending = true
	if s.notifying {
		s.listenersMu.Unlock()
		return
	}
	s.notifying = true

	done := false
	defer func() {
		// A listener panicked
		if !done {
			s.listenersMu.Lock()
			s.notifying = false
			s.listenersMu.Unlock()
		}
	}()

	for s.notifyPending {
		s.notifyPending = false
		listeners := slices.Clone(s.listeners)
		s.listenersMu.Unlock()

		for _, l := range listeners {
			l.fn()
		}

		s.listenersMu.Lock()
	}

	s.notifying = false
	done = true
	s.listenersMu.Unlock()
}

func (s *Store[S]) launch(actionType string, promise Promise, meta any) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		value, err := settle(s.ctx, promise)
		if err != nil {
			s.Dispatch(Action{Type: Rejected(actionType), Payload: err, Meta: meta, Error: true})
			return
		}
		s.Dispatch(Action{Type: Fulfilled(actionType), Payload: value, Meta: meta})
	}()
}

func settle(ctx context.Context, promise Promise) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return promise(ctx)
}

// txn is the Dispatcher handed to thunks while the store is locked
type txn[S any] struct {
	store *Store[S]
	dirty bool
}

func (tx *txn[S]) State() S {
	return tx.store.state
}

func (tx *txn[S]) Run(thunk Thunk[S]) {
	thunk(tx)
}

func (tx *txn[S]) Dispatch(action Action) {
	if promise, ok := action.Payload.(Promise); ok {
		if promise == nil {
			panic("flux: nil promise for " + action.Type)
		}
		tx.reduce(Action{Type: Pending(action.Type), Meta: action.Meta})
		tx.store.launch(action.Type, promise, action.Meta)
		return
	}
	tx.reduce(action)
}

func (tx *txn[S]) reduce(action Action) {
	s := tx.store
	start := time.Now()
	s.state = s.reduce(s.state, action)
	tx.dirty = true

	level := slog.LevelDebug
	if action.Error {
		level = slog.LevelWarn
	}
	s.logger.Log(s.ctx, level, "Reduced action",
		slog.String("type", action.Type),
		slog.Bool("isError", action.Error),
		slog.String("duration", time.Since(start).String()),
	)
}
