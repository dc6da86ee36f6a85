package asynccache

// SettleOutcome tells where the result of a fetch ended up
type SettleOutcome int

const (
	// Stored in the live entry
	SettleLive SettleOutcome = iota
	// Stored in the cache because every subscriber left during the fetch
	SettleCached
	// Discarded
	SettleDropped
)

func (o SettleOutcome) String() string {
	switch o {
	case SettleLive:
		return "live"
	case SettleCached:
		return "cached"
	default:
		return "dropped"
	}
}

// Metrics receives the cache events. Implementations must be safe for concurrent use and must not
// call back into the store.
type Metrics interface {
	// Subscribe joined a live entry
	Hit()
	// Subscribe promoted an entry from the cache
	CacheHit()
	// Subscribe started a fetch
	Miss()
	// An entry was pushed out of the cache
	Evict()
	// A fetch settled. err is nil on success.
	Settle(outcome SettleOutcome, err error)
}

// NoopMetrics is the Metrics used when none is configured
type NoopMetrics struct{}

func (NoopMetrics) Hit()                        {}
func (NoopMetrics) CacheHit()                   {}
func (NoopMetrics) Miss()                       {}
func (NoopMetrics) Evict()                      {}
func (NoopMetrics) Settle(SettleOutcome, error) {}

var _ Metrics = NoopMetrics{}
