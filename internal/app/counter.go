package app

import (
	"context"
	"time"

	"github.com/Amund211/pagecache/internal/flux"
)

const (
	CounterIncrement = "counter/COUNTER_INCREMENT"
	CounterDouble    = "counter/COUNTER_DOUBLE"

	DoubleDelay = 200 * time.Millisecond
)

func Increment(value int) flux.Action {
	return flux.NewAction(CounterIncrement, value, nil)
}

// DoubleAsync doubles the counter once DoubleDelay has passed
func (a *App) DoubleAsync() flux.Action {
	return flux.NewPromise(CounterDouble, func(ctx context.Context) (any, error) {
		select {
		case <-a.after(DoubleDelay):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, nil)
}

func counterHandlers() flux.Handlers[int] {
	return flux.Merge(
		flux.Handlers[int]{
			CounterIncrement: func(state int, action flux.Action) int {
				return state + action.Payload.(int)
			},
		},
		flux.HandlePromise(CounterDouble, nil, func(state int, _ flux.Action) int {
			return state * 2
		}, nil),
	)
}
