package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGetOrCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates once", func(t *testing.T) {
		t.Parallel()

		cache := NewBasicCache[string]()

		data, created, err := GetOrCreate(t.Context(), cache, "key1", func() (string, error) {
			return "data1", nil
		})
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, "data1", data)

		data, created, err = GetOrCreate(t.Context(), cache, "key1", func() (string, error) {
			t.Error("should use the cached value")
			return "", nil
		})
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, "data1", data)
	})

	t.Run("error releases the claim", func(t *testing.T) {
		t.Parallel()

		cache := NewBasicCache[string]()

		_, created, err := GetOrCreate(t.Context(), cache, "key1", func() (string, error) {
			return "", errors.New("boom")
		})
		require.Error(t, err)
		require.False(t, created)

		data, created, err := GetOrCreate(t.Context(), cache, "key1", func() (string, error) {
			return "data2", nil
		})
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, "data2", data)
	})

	t.Run("concurrent callers share the value", func(t *testing.T) {
		t.Parallel()

		cache := NewBasicCache[string]()
		var creates atomic.Int32
		release := make(chan struct{})

		var g errgroup.Group
		for i := range 10 {
			g.Go(func() error {
				data, _, err := GetOrCreate(t.Context(), cache, "key1", func() (string, error) {
					creates.Add(1)
					<-release
					return "shared", nil
				})
				if err != nil {
					return err
				}
				if data != "shared" {
					return fmt.Errorf("caller %d got %q", i, data)
				}
				return nil
			})
		}

		time.Sleep(10 * time.Millisecond)
		close(release)

		require.NoError(t, g.Wait())
		require.Equal(t, int32(1), creates.Load())
	})

	t.Run("waiting gives up when the context ends", func(t *testing.T) {
		t.Parallel()

		cache := NewBasicCache[string]()
		// Claimed by someone who never finishes
		require.True(t, cache.getOrClaim("key1").claimed)

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, _, err := GetOrCreate(ctx, cache, "key1", func() (string, error) {
			t.Error("the key is already claimed")
			return "", nil
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// The waiter does not release a claim it does not own
		require.False(t, cache.getOrClaim("key1").claimed)
	})
}
