package otelmetrics

import (
	"context"
	"fmt"

	"github.com/Amund211/pagecache/internal/asynccache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const name = "pagecache/asynccache"

type adapter struct {
	subscribeCount metric.Int64Counter
	evictCount     metric.Int64Counter
	settleCount    metric.Int64Counter
}

// New records the cache events with the global meter provider
func New() (asynccache.Metrics, error) {
	return NewWithMeter(otel.Meter(name))
}

func NewWithMeter(meter metric.Meter) (asynccache.Metrics, error) {
	subscribeCount, err := meter.Int64Counter(name + "/subscribe_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create subscribe count metric: %w", err)
	}

	evictCount, err := meter.Int64Counter(name + "/evict_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create evict count metric: %w", err)
	}

	settleCount, err := meter.Int64Counter(name + "/settle_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create settle count metric: %w", err)
	}

	return &adapter{
		subscribeCount: subscribeCount,
		evictCount:     evictCount,
		settleCount:    settleCount,
	}, nil
}

func (a *adapter) subscribed(result string) {
	a.subscribeCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
}

func (a *adapter) Hit()      { a.subscribed("hit") }
func (a *adapter) CacheHit() { a.subscribed("cache_hit") }
func (a *adapter) Miss()     { a.subscribed("miss") }

func (a *adapter) Evict() {
	a.evictCount.Add(context.Background(), 1)
}

func (a *adapter) Settle(outcome asynccache.SettleOutcome, err error) {
	a.settleCount.Add(
		context.Background(),
		1,
		metric.WithAttributes(
			attribute.String("outcome", outcome.String()),
			attribute.Bool("success", err == nil),
		),
	)
}
