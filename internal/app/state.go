package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/Amund211/pagecache/internal/flux"
)

// State is the root state of the application
type State struct {
	Counter int
	Sample  SampleState
}

type SampleState struct {
	CurrentPage int
	// Page data cache. Keyed by the decimal page number.
	API *asynccache.State[string]
}

type Options struct {
	GetPage GetPage
	// Number of unsubscribed pages to keep. Defaults to DefaultPageCacheSize.
	MaxCacheSize int
	Metrics      asynccache.Metrics
	// Used by DoubleAsync. Defaults to time.After.
	After func(time.Duration) <-chan time.Time
}

// App holds the modules of the application and combines their reducers
type App struct {
	Sample *Sample

	counter flux.Reducer[int]
	after   func(time.Duration) <-chan time.Time
}

func New(opts Options) *App {
	after := opts.After
	if after == nil {
		after = time.After
	}

	return &App{
		Sample:  NewSample(opts.GetPage, opts.MaxCacheSize, opts.Metrics),
		counter: flux.CreateReducer(0, counterHandlers()),
		after:   after,
	}
}

func (a *App) InitialState() State {
	return State{
		Counter: a.counter.Initial(),
		Sample:  a.Sample.InitialState(),
	}
}

// Reduce hands the action to every module with its own part of the state
func (a *App) Reduce(state State, action flux.Action) State {
	return State{
		Counter: a.counter.Reduce(state.Counter, action),
		Sample:  a.Sample.Reduce(state.Sample, action),
	}
}

func (a *App) NewStore(ctx context.Context, logger *slog.Logger) *flux.Store[State] {
	return flux.NewStore(ctx, a.Reduce, a.InitialState(), logger)
}
