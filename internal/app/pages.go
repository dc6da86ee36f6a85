package app

import (
	"context"
	"strconv"

	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/Amund211/pagecache/internal/disposable"
	"github.com/Amund211/pagecache/internal/flux"
)

const (
	SetCurrentPage  = "sample/SET_CURRENT_PAGE"
	PageCachePrefix = "sample/cache"

	DefaultPageCacheSize = 4
)

type GetPage func(ctx context.Context, page int) (string, error)

type SetCurrentPagePayload struct {
	Page int
}

// Sample is the page browsing module. It keeps the selected page and the fetched page data.
type Sample struct {
	cache          *asynccache.Cache[State, int, string]
	api            flux.Reducer[*asynccache.State[string]]
	currentPage    flux.Reducer[int]
	setCurrentPage func(page int) flux.Thunk[State]
}

func NewSample(getPage GetPage, maxCacheSize int, metrics asynccache.Metrics) *Sample {
	if maxCacheSize == 0 {
		maxCacheSize = DefaultPageCacheSize
	}

	cache := asynccache.New(asynccache.Options[State, int, string]{
		ActionPrefix: PageCachePrefix,
		MaxCacheSize: maxCacheSize,
		LocalState: func(root State) *asynccache.State[string] {
			return root.Sample.API
		},
		Key: func(page int) (string, bool) {
			return strconv.Itoa(page), true
		},
		Fetch: func(ctx context.Context, _ State, page int) (string, error) {
			return getPage(ctx, page)
		},
		Metrics: metrics,
	})

	return &Sample{
		cache: cache,
		api:   cache.Reducer(),
		currentPage: flux.CreateReducer(0, flux.Handlers[int]{
			SetCurrentPage: func(_ int, action flux.Action) int {
				return action.Payload.(SetCurrentPagePayload).Page
			},
		}),
		setCurrentPage: flux.DispatchIfDifferent(
			func(state State) int { return state.Sample.CurrentPage },
			func(page int, _ State) flux.Action {
				return flux.NewAction(SetCurrentPage, SetCurrentPagePayload{Page: page}, nil)
			},
		),
	}
}

func (s *Sample) ActionTypes() asynccache.ActionTypes {
	return s.cache.ActionTypes()
}

func (s *Sample) InitialState() SampleState {
	return SampleState{
		CurrentPage: s.currentPage.Initial(),
		API:         s.api.Initial(),
	}
}

func (s *Sample) Reduce(state SampleState, action flux.Action) SampleState {
	return SampleState{
		CurrentPage: s.currentPage.Reduce(state.CurrentPage, action),
		API:         s.api.Reduce(state.API, action),
	}
}

// SetCurrentPage selects page. Nothing is dispatched when it is already selected.
func (s *Sample) SetCurrentPage(page int) flux.Thunk[State] {
	return s.setCurrentPage(page)
}

func (s *Sample) GetPageData(state State, page int) asynccache.Entry[string] {
	return s.cache.GetEntry(state, page)
}

// ObservePageData keeps the data for page loaded until the returned handle is disposed
func (s *Sample) ObservePageData(d flux.Dispatcher[State], page int) disposable.Disposable {
	return s.cache.Observe(d, page)
}
