package cache

import (
	"context"
	"fmt"

	"github.com/Amund211/pagecache/internal/logging"
)

// GetOrCreate returns the cached value for key, calling create when nobody else is creating it.
// The bool is true when this call created the value.
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	// Release the claim when create fails so other callers can try again
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(key)
		}
	}()

	for {
		result := cache.getOrClaim(key)

		if result.claimed {
			claimed = true

			logging.FromContext(ctx).DebugContext(ctx, "Creating cache entry", "cache", "miss")

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(key, data)
			set = true

			return data, true, nil
		}

		if result.valid {
			logging.FromContext(ctx).DebugContext(ctx, "Using cache entry", "cache", "hit")
			return result.data, false, nil
		}

		if err := ctx.Err(); err != nil {
			var empty T
			return empty, false, fmt.Errorf("gave up waiting for cache entry: %w", err)
		}

		cache.wait()
	}
}
