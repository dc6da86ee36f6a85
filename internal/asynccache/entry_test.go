package asynccache_test

import (
	"testing"

	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/Amund211/pagecache/internal/flux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry(t *testing.T) {
	t.Parallel()

	match := func(entry asynccache.Entry[int]) string {
		var result string
		entry.Match(
			func() { result = "loading" },
			func(data int) { result = "ready" },
			func(err error) { result = "failed: " + err.Error() },
		)
		return result
	}

	t.Run("loading", func(t *testing.T) {
		t.Parallel()

		entry := asynccache.Loading[int]()
		require.Equal(t, asynccache.StatusLoading, entry.Status())
		_, ok := entry.Data()
		require.False(t, ok)
		require.NoError(t, entry.Err())
		require.Equal(t, "loading", match(entry))
		require.Equal(t, "Loading", entry.String())
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()

		entry := asynccache.Ready(5)
		require.Equal(t, asynccache.StatusReady, entry.Status())
		data, ok := entry.Data()
		require.True(t, ok)
		require.Equal(t, 5, data)
		require.NoError(t, entry.Err())
		require.Equal(t, "ready", match(entry))
		require.Equal(t, "Ready(5)", entry.String())
	})

	t.Run("failed", func(t *testing.T) {
		t.Parallel()

		entry := asynccache.Failed[int](assert.AnError)
		require.Equal(t, asynccache.StatusFailed, entry.Status())
		_, ok := entry.Data()
		require.False(t, ok)
		require.ErrorIs(t, entry.Err(), assert.AnError)
		require.Equal(t, "failed: "+assert.AnError.Error(), match(entry))
	})

	t.Run("zero value is loading", func(t *testing.T) {
		t.Parallel()

		var entry asynccache.Entry[int]
		require.Equal(t, asynccache.StatusLoading, entry.Status())
	})
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "loading", asynccache.StatusLoading.String())
	require.Equal(t, "ready", asynccache.StatusReady.String())
	require.Equal(t, "failed", asynccache.StatusFailed.String())
	require.Equal(t, "Status(7)", asynccache.Status(7).String())
}

func TestHandleLoadingPromise(t *testing.T) {
	t.Parallel()

	type state struct {
		entry asynccache.Entry[string]
		meta  any
	}

	reducer := flux.CreateReducer(state{}, asynccache.HandleLoadingPromise(
		"fetch",
		func(_ state, entry asynccache.Entry[string], meta any) state {
			return state{entry: entry, meta: meta}
		},
	))

	pending := reducer.Reduce(state{}, flux.Action{Type: "fetch_PENDING", Meta: 1})
	require.Equal(t, asynccache.StatusLoading, pending.entry.Status())
	require.Equal(t, 1, pending.meta)

	fulfilled := reducer.Reduce(pending, flux.Action{Type: "fetch_FULFILLED", Payload: "data", Meta: 2})
	data, ok := fulfilled.entry.Data()
	require.True(t, ok)
	require.Equal(t, "data", data)
	require.Equal(t, 2, fulfilled.meta)

	rejected := reducer.Reduce(pending, flux.Action{Type: "fetch_REJECTED", Payload: assert.AnError, Error: true})
	require.Equal(t, asynccache.StatusFailed, rejected.entry.Status())
	require.ErrorIs(t, rejected.entry.Err(), assert.AnError)
}
