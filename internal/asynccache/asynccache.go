// Package asynccache keeps asynchronously fetched data in a flux store.
//
// Consumers subscribe to a key while they need its data and unsubscribe when they are done. The
// first subscriber triggers a fetch and later subscribers share it. Entries nobody is subscribed to
// any more are kept in a bounded LRU cache so a returning subscriber gets them without a fetch.
// Failed fetches are never cached.
package asynccache

import (
	"context"

	"github.com/Amund211/pagecache/internal/disposable"
	"github.com/Amund211/pagecache/internal/flux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxCacheSize = 10

const (
	otelFetchStarted = "asynccache.fetch.started"
	otelFetchEnded   = "asynccache.fetch.ended"
	otelFetchError   = "asynccache.fetch.error"
)

var tracer = otel.Tracer("github.com/Amund211/pagecache/internal/asynccache")

type Options[S any, A any, T any] struct {
	// Prefix of the generated action types
	ActionPrefix string
	// Number of unsubscribed entries to keep. Defaults to DefaultMaxCacheSize.
	MaxCacheSize int
	// Locates the cache state inside the root state
	LocalState func(root S) *State[T]
	// Maps subscription arguments to a key. ok=false means the subscription is not tracked.
	Key func(args A) (key string, ok bool)
	// Loads the data for a key. Never called twice concurrently for the same live key.
	Fetch func(ctx context.Context, root S, args A) (T, error)
	Metrics Metrics
}

type ActionTypes struct {
	// Base type of the fetch promise (_PENDING, _FULFILLED, _REJECTED)
	Load string
	// A cached entry was promoted
	LoadFromCache string
	// The subscriber count of a live key changed
	Monitor string
}

// MonitorPayload is the payload of the Monitor action
type MonitorPayload struct {
	Key    string
	Change int
}

type Cache[S any, A any, T any] struct {
	types        ActionTypes
	maxCacheSize int
	localState   func(root S) *State[T]
	key          func(args A) (string, bool)
	fetch        func(ctx context.Context, root S, args A) (T, error)
	metrics      Metrics
}

func New[S any, A any, T any](opts Options[S, A, T]) *Cache[S, A, T] {
	if opts.ActionPrefix == "" {
		panic("asynccache: missing ActionPrefix")
	}
	if opts.LocalState == nil || opts.Key == nil || opts.Fetch == nil {
		panic("asynccache: LocalState, Key and Fetch are required")
	}

	maxCacheSize := opts.MaxCacheSize
	if maxCacheSize == 0 {
		maxCacheSize = DefaultMaxCacheSize
	}
	if maxCacheSize < 0 {
		panic("asynccache: negative MaxCacheSize")
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &Cache[S, A, T]{
		types: ActionTypes{
			Load:          opts.ActionPrefix + "_LOAD",
			LoadFromCache: opts.ActionPrefix + "_LOAD_FROM_CACHE",
			Monitor:       opts.ActionPrefix + "_MONITOR",
		},
		maxCacheSize: maxCacheSize,
		localState:   opts.LocalState,
		key:          opts.Key,
		fetch:        opts.Fetch,
		metrics:      metrics,
	}
}

func (c *Cache[S, A, T]) ActionTypes() ActionTypes {
	return c.types
}

func (c *Cache[S, A, T]) InitialState() *State[T] {
	return NewState[T](c.maxCacheSize)
}

// Subscribe expresses interest in the data for args.
//
// Joins the live entry if there is one, otherwise promotes a cached entry, otherwise starts a fetch.
func (c *Cache[S, A, T]) Subscribe(args A) flux.Thunk[S] {
	return func(d flux.Dispatcher[S]) {
		key, ok := c.key(args)
		if !ok {
			return
		}

		root := d.State()
		local := c.localState(root)
		switch {
		case local.IsLive(key):
			c.metrics.Hit()
			d.Dispatch(flux.NewAction(c.types.Monitor, MonitorPayload{Key: key, Change: 1}, nil))
		case local.IsCached(key):
			c.metrics.CacheHit()
			d.Dispatch(flux.NewAction(c.types.LoadFromCache, key, nil))
		default:
			c.metrics.Miss()
			d.Dispatch(flux.NewPromise(c.types.Load, c.load(root, key, args), key))
		}
	}
}

// Unsubscribe withdraws one subscription made with Subscribe
func (c *Cache[S, A, T]) Unsubscribe(args A) flux.Thunk[S] {
	return func(d flux.Dispatcher[S]) {
		key, ok := c.key(args)
		if !ok {
			return
		}
		if !c.localState(d.State()).IsLive(key) {
			return
		}
		d.Dispatch(flux.NewAction(c.types.Monitor, MonitorPayload{Key: key, Change: -1}, nil))
	}
}

// GetEntry reads the live entry for args. Keys without subscribers read as Loading.
func (c *Cache[S, A, T]) GetEntry(root S, args A) Entry[T] {
	key, ok := c.key(args)
	if !ok {
		return Loading[T]()
	}
	return c.localState(root).get(key)
}

// Observe subscribes to args and returns a handle that unsubscribes once disposed
func (c *Cache[S, A, T]) Observe(d flux.Dispatcher[S], args A) disposable.Disposable {
	d.Run(c.Subscribe(args))
	return disposable.Create(func() {
		d.Run(c.Unsubscribe(args))
	})
}

func (c *Cache[S, A, T]) load(root S, key string, args A) flux.Promise {
	return func(ctx context.Context) (any, error) {
		ctx, span := tracer.Start(ctx, "asynccache.fetch", trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.String("cache.action", c.types.Load),
		))
		defer span.End()

		span.AddEvent(otelFetchStarted)
		data, err := c.fetch(ctx, root, args)
		if err != nil {
			span.AddEvent(otelFetchError)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.AddEvent(otelFetchEnded)
		return data, nil
	}
}

func (c *Cache[S, A, T]) onEvict(string, *Entry[T]) {
	c.metrics.Evict()
}

func (c *Cache[S, A, T]) Handlers() flux.Handlers[*State[T]] {
	return flux.Merge(
		flux.Handlers[*State[T]]{
			c.types.LoadFromCache: func(state *State[T], action flux.Action) *State[T] {
				return state.loadFromCache(action.Payload.(string))
			},
			c.types.Monitor: func(state *State[T], action flux.Action) *State[T] {
				payload := action.Payload.(MonitorPayload)
				return state.monitor(payload.Key, payload.Change, c.onEvict)
			},
		},
		flux.HandlePromise(c.types.Load,
			func(state *State[T], action flux.Action) *State[T] {
				return state.loadPending(action.Meta.(string))
			},
			func(state *State[T], action flux.Action) *State[T] {
				data, _ := action.Payload.(T)
				next, outcome := state.loadFulfilled(action.Meta.(string), data, c.onEvict)
				c.metrics.Settle(outcome, nil)
				return next
			},
			func(state *State[T], action flux.Action) *State[T] {
				err, _ := action.Payload.(error)
				next, outcome := state.loadRejected(action.Meta.(string), err)
				c.metrics.Settle(outcome, err)
				return next
			},
		),
	)
}

func (c *Cache[S, A, T]) Reducer() flux.Reducer[*State[T]] {
	return flux.CreateReducer(c.InitialState(), c.Handlers())
}

// HandleLoadingPromise builds promise handlers that record each phase as an Entry through mutate
func HandleLoadingPromise[S any, T any](actionType string, mutate func(state S, entry Entry[T], meta any) S) flux.Handlers[S] {
	return flux.HandlePromise(actionType,
		func(state S, action flux.Action) S {
			return mutate(state, Loading[T](), action.Meta)
		},
		func(state S, action flux.Action) S {
			data, _ := action.Payload.(T)
			return mutate(state, Ready(data), action.Meta)
		},
		func(state S, action flux.Action) S {
			err, _ := action.Payload.(error)
			return mutate(state, Failed[T](err), action.Meta)
		},
	)
}
