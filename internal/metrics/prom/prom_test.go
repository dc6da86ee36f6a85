package prom_test

import (
	"errors"
	"testing"

	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/Amund211/pagecache/internal/metrics/prom"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}
	return byName
}

func counterValue(t *testing.T, family *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	require.NotNil(t, family)

	for _, m := range family.GetMetric() {
		matches := true
		for _, pair := range m.GetLabel() {
			if labels[pair.GetName()] != pair.GetValue() {
				matches = false
				break
			}
		}
		if matches && len(m.GetLabel()) == len(labels) {
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("no metric with labels %v in %s", labels, family.GetName())
	return 0
}

func TestAdapter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	adapter := prom.New(reg, "pagecache", "pages")

	adapter.Miss()
	adapter.Miss()
	adapter.Hit()
	adapter.CacheHit()
	adapter.Evict()
	adapter.Settle(asynccache.SettleLive, nil)
	adapter.Settle(asynccache.SettleLive, nil)
	adapter.Settle(asynccache.SettleCached, nil)
	adapter.Settle(asynccache.SettleDropped, errors.New("boom"))

	families := gather(t, reg)

	require.InDelta(t, 2, counterValue(t, families["pagecache_pages_misses_total"], nil), 0)
	require.InDelta(t, 1, counterValue(t, families["pagecache_pages_hits_total"], nil), 0)
	require.InDelta(t, 1, counterValue(t, families["pagecache_pages_cache_hits_total"], nil), 0)
	require.InDelta(t, 1, counterValue(t, families["pagecache_pages_evictions_total"], nil), 0)

	settles := families["pagecache_pages_settles_total"]
	require.InDelta(t, 2, counterValue(t, settles, map[string]string{"outcome": "live", "result": "success"}), 0)
	require.InDelta(t, 1, counterValue(t, settles, map[string]string{"outcome": "cached", "result": "success"}), 0)
	require.InDelta(t, 1, counterValue(t, settles, map[string]string{"outcome": "dropped", "result": "error"}), 0)
	require.Len(t, settles.GetMetric(), 3)
}

func TestAdapterDoubleRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	prom.New(reg, "pagecache", "pages")

	require.Panics(t, func() {
		prom.New(reg, "pagecache", "pages")
	})
}
