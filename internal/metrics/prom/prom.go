package prom

import (
	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter exports the page cache events as Prometheus counters
type Adapter struct {
	hits      prometheus.Counter
	cacheHits prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	settles   *prometheus.CounterVec
}

// New registers the counters with reg, or prometheus.DefaultRegisterer when reg is nil
func New(reg prometheus.Registerer, ns, sub string) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      name,
			Help:      help,
		})
	}

	a := &Adapter{
		hits:      counter("hits_total", "Subscriptions to an entry that was already live"),
		cacheHits: counter("cache_hits_total", "Subscriptions served from the cache"),
		misses:    counter("misses_total", "Subscriptions that started a fetch"),
		evictions: counter("evictions_total", "Entries pushed out of the cache"),
		settles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "settles_total",
				Help:      "Settled fetches by where the result ended up",
			},
			[]string{"outcome", "result"},
		),
	}
	reg.MustRegister(a.hits, a.cacheHits, a.misses, a.evictions, a.settles)
	return a
}

func (a *Adapter) Hit()      { a.hits.Inc() }
func (a *Adapter) CacheHit() { a.cacheHits.Inc() }
func (a *Adapter) Miss()     { a.misses.Inc() }
func (a *Adapter) Evict()    { a.evictions.Inc() }

func (a *Adapter) Settle(outcome asynccache.SettleOutcome, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	a.settles.WithLabelValues(outcome.String(), result).Inc()
}

var _ asynccache.Metrics = (*Adapter)(nil)
