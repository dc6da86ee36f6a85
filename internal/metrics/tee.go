package metrics

import "github.com/Amund211/pagecache/internal/asynccache"

// Tee forwards every cache event to all of its members
type Tee []asynccache.Metrics

func (t Tee) Hit() {
	for _, m := range t {
		m.Hit()
	}
}

func (t Tee) CacheHit() {
	for _, m := range t {
		m.CacheHit()
	}
}

func (t Tee) Miss() {
	for _, m := range t {
		m.Miss()
	}
}

func (t Tee) Evict() {
	for _, m := range t {
		m.Evict()
	}
}

func (t Tee) Settle(outcome asynccache.SettleOutcome, err error) {
	for _, m := range t {
		m.Settle(outcome, err)
	}
}

var _ asynccache.Metrics = Tee(nil)
