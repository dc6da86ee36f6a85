package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/pagecache/internal/app"
	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/Amund211/pagecache/internal/databind"
	"github.com/Amund211/pagecache/internal/domain"
	"github.com/Amund211/pagecache/internal/flux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGetPage struct {
	t *testing.T

	mu      sync.Mutex
	calls   []int
	failing map[int]error
}

func (m *mockGetPage) getPage(ctx context.Context, page int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, page)
	if err, ok := m.failing[page]; ok {
		return "", err
	}
	return fmt.Sprintf("data for page %d", page), nil
}

func (m *mockGetPage) requireCalls(expected ...int) {
	m.t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Equal(m.t, expected, m.calls)
}

type fakeTimer struct {
	t  *testing.T
	ch chan time.Time
}

func newFakeTimer(t *testing.T) *fakeTimer {
	return &fakeTimer{t: t, ch: make(chan time.Time, 1)}
}

func (f *fakeTimer) after(d time.Duration) <-chan time.Time {
	assert.Equal(f.t, app.DoubleDelay, d)
	return f.ch
}

func (f *fakeTimer) fire() {
	f.ch <- time.Now()
}

func newApp(t *testing.T, getPage *mockGetPage, timer *fakeTimer) (*app.App, *flux.Store[app.State]) {
	t.Helper()

	a := app.New(app.Options{
		GetPage: getPage.getPage,
		After:   timer.after,
	})
	store := a.NewStore(t.Context(), nil)
	t.Cleanup(store.Close)
	return a, store
}

func TestCounter(t *testing.T) {
	t.Parallel()

	t.Run("increment", func(t *testing.T) {
		t.Parallel()

		a := app.New(app.Options{GetPage: (&mockGetPage{t: t}).getPage})
		state := a.InitialState()
		require.Equal(t, 0, state.Counter)

		state = a.Reduce(state, flux.NewAction("@@@@@@@", nil, nil))
		require.Equal(t, 0, state.Counter)

		state = a.Reduce(state, app.Increment(5))
		require.Equal(t, 5, state.Counter)

		state = a.Reduce(state, flux.NewAction("@@@@@@@", nil, nil))
		require.Equal(t, 5, state.Counter)
	})

	t.Run("double async", func(t *testing.T) {
		t.Parallel()

		timer := newFakeTimer(t)
		a, store := newApp(t, &mockGetPage{t: t}, timer)

		store.Dispatch(app.Increment(3))
		store.Dispatch(a.DoubleAsync())
		require.Equal(t, 3, store.State().Counter)

		timer.fire()
		store.Wait()
		require.Equal(t, 6, store.State().Counter)
	})

	t.Run("double async is abandoned on close", func(t *testing.T) {
		t.Parallel()

		timer := newFakeTimer(t)
		a, store := newApp(t, &mockGetPage{t: t}, timer)

		store.Dispatch(app.Increment(3))
		store.Dispatch(a.DoubleAsync())
		store.Close()

		require.Equal(t, 3, store.State().Counter)
	})
}

func TestSetCurrentPage(t *testing.T) {
	t.Parallel()

	a, store := newApp(t, &mockGetPage{t: t}, newFakeTimer(t))

	notifications := 0
	unsubscribe := store.Subscribe(func() { notifications++ })
	defer unsubscribe()

	store.Run(a.Sample.SetCurrentPage(0))
	require.Equal(t, 0, notifications)

	store.Run(a.Sample.SetCurrentPage(2))
	require.Equal(t, 1, notifications)
	require.Equal(t, 2, store.State().Sample.CurrentPage)

	store.Run(a.Sample.SetCurrentPage(2))
	require.Equal(t, 1, notifications)
}

func TestDataViewer(t *testing.T) {
	t.Parallel()

	getPage := &mockGetPage{t: t}
	a, store := newApp(t, getPage, newFakeTimer(t))

	var renders []string
	binding := databind.Mount(store, a.DataViewer(func(props app.ViewerProps, _ app.ViewerActions) {
		renders = append(renders, app.Describe(props))
	}))
	store.Wait()

	requireProps := func(currentPage, maxPages int, status asynccache.Status) {
		t.Helper()
		props := binding.Props()
		require.Equal(t, currentPage, props.CurrentPage)
		require.Equal(t, maxPages, props.MaxPages)
		require.Equal(t, status, props.PageData.Status())
	}

	requireProps(0, 1, asynccache.StatusReady)
	require.Equal(t, "[page 0/1] data for page 0", renders[len(renders)-1])
	getPage.requireCalls(0)

	// Moving to another page caches the previous one
	binding.Actions().SetCurrentPage(1)
	store.Wait()
	requireProps(1, 1, asynccache.StatusReady)
	getPage.requireCalls(0, 1)
	require.Equal(t, []string{"1"}, store.State().Sample.API.LiveKeys())
	require.Equal(t, []string{"0"}, store.State().Sample.API.CachedKeys())

	// Pages past the counter are clamped, so the watched page does not change
	binding.Actions().SetCurrentPage(5)
	store.Wait()
	requireProps(1, 1, asynccache.StatusReady)
	getPage.requireCalls(0, 1)

	// Raising the counter makes the selected page reachable
	store.Dispatch(app.Increment(10))
	store.Wait()
	requireProps(5, 11, asynccache.StatusReady)
	getPage.requireCalls(0, 1, 5)
	require.Equal(t, []string{"1", "0"}, store.State().Sample.API.CachedKeys())

	// Returning to a cached page does not fetch
	binding.Actions().SetCurrentPage(0)
	requireProps(0, 11, asynccache.StatusReady)
	store.Wait()
	getPage.requireCalls(0, 1, 5)

	binding.Unmount()
	require.Empty(t, store.State().Sample.API.LiveKeys())
	require.Equal(t, []string{"0", "5", "1"}, store.State().Sample.API.CachedKeys())
}

func TestDataViewerFailure(t *testing.T) {
	t.Parallel()

	getPage := &mockGetPage{
		t:       t,
		failing: map[int]error{0: domain.NewStatusError(503)},
	}
	a, store := newApp(t, getPage, newFakeTimer(t))

	binding := databind.Mount(store, a.DataViewer(nil))
	store.Wait()

	props := binding.Props()
	require.Equal(t, asynccache.StatusFailed, props.PageData.Status())
	require.ErrorIs(t, props.PageData.Err(), domain.ErrTemporarilyUnavailable)
	require.Equal(t, "[page 0/1] error: Service Unavailable", app.Describe(props))

	// Failures are not cached, so coming back fetches again
	store.Dispatch(app.Increment(1))
	binding.Actions().SetCurrentPage(1)
	store.Wait()
	require.Empty(t, store.State().Sample.API.CachedKeys())

	binding.Actions().SetCurrentPage(0)
	store.Wait()
	getPage.requireCalls(0, 1, 0)

	binding.Unmount()
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		props    app.ViewerProps
		expected string
	}{
		{
			name:     "loading",
			props:    app.ViewerProps{CurrentPage: 1, MaxPages: 2, PageData: asynccache.Loading[string]()},
			expected: "[page 1/2] loading...",
		},
		{
			name:     "ready",
			props:    app.ViewerProps{CurrentPage: 0, MaxPages: 1, PageData: asynccache.Ready("hello")},
			expected: "[page 0/1] hello",
		},
		{
			name:     "failed",
			props:    app.ViewerProps{CurrentPage: 3, MaxPages: 3, PageData: asynccache.Failed[string](domain.NewStatusError(404))},
			expected: "[page 3/3] error: Not Found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, app.Describe(tc.props))
		})
	}
}

func TestHome(t *testing.T) {
	t.Parallel()

	timer := newFakeTimer(t)
	a, store := newApp(t, &mockGetPage{t: t}, timer)

	var rendered []int
	binding := databind.Mount(store, a.Home(func(props app.HomeProps, _ app.HomeActions) {
		rendered = append(rendered, props.Counter)
	}))
	defer binding.Unmount()

	binding.Actions().Increment(2)
	require.Equal(t, app.HomeProps{Counter: 2}, binding.Props())

	binding.Actions().DoubleAsync()
	timer.fire()
	store.Wait()

	require.Equal(t, app.HomeProps{Counter: 4}, binding.Props())
	// The pending phase of the promise renders the unchanged counter once more
	require.Equal(t, []int{0, 2, 2, 4}, rendered)
}
