package asynccache

import (
	"maps"
	"slices"

	"github.com/Amund211/pagecache/internal/lru"
)

// State is the immutable value holding the live entries, their subscriber counts and the cache of
// entries nobody is subscribed to. Transitions return a new State and share every part they did
// not touch with the previous one.
type State[T any] struct {
	entries        map[string]*Entry[T]
	numSubscribers map[string]int
	cache          *lru.LRU[string, *Entry[T]]
}

func NewState[T any](maxCacheSize int) *State[T] {
	return &State[T]{
		entries:        map[string]*Entry[T]{},
		numSubscribers: map[string]int{},
		cache:          lru.New[string, *Entry[T]](maxCacheSize),
	}
}

func (s *State[T]) IsLive(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Live returns the entry of a key with at least one subscriber
func (s *State[T]) Live(key string) (Entry[T], bool) {
	entry, ok := s.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	return *entry, true
}

func (s *State[T]) Subscribers(key string) int {
	return s.numSubscribers[key]
}

func (s *State[T]) IsCached(key string) bool {
	return s.cache.Has(key)
}

// Cached returns the entry kept for a key nobody is subscribed to
func (s *State[T]) Cached(key string) (Entry[T], bool) {
	entry, ok := s.cache.Peek(key)
	if !ok {
		return Entry[T]{}, false
	}
	return *entry, true
}

func (s *State[T]) LiveKeys() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

// CachedKeys returns the cached keys, most recently used first
func (s *State[T]) CachedKeys() []string {
	return s.cache.Keys()
}

func (s *State[T]) get(key string) Entry[T] {
	if entry, ok := s.entries[key]; ok {
		return *entry
	}
	return Loading[T]()
}

func (s *State[T]) with(entries map[string]*Entry[T], numSubscribers map[string]int, cache *lru.LRU[string, *Entry[T]]) *State[T] {
	return &State[T]{entries: entries, numSubscribers: numSubscribers, cache: cache}
}

func withEntry[T any](entries map[string]*Entry[T], key string, entry Entry[T]) map[string]*Entry[T] {
	updated := maps.Clone(entries)
	updated[key] = &entry
	return updated
}

func (s *State[T]) loadPending(key string) *State[T] {
	numSubscribers := maps.Clone(s.numSubscribers)
	numSubscribers[key] = 1
	return s.with(withEntry(s.entries, key, Loading[T]()), numSubscribers, s.cache)
}

func (s *State[T]) loadFromCache(key string) *State[T] {
	entry, ok, cache := s.cache.Remove(key)
	if !ok {
		return s
	}

	entries := maps.Clone(s.entries)
	entries[key] = entry
	numSubscribers := maps.Clone(s.numSubscribers)
	numSubscribers[key] = 1
	return s.with(entries, numSubscribers, cache)
}

func (s *State[T]) monitor(key string, change int, onEvict func(string, *Entry[T])) *State[T] {
	current, ok := s.numSubscribers[key]
	if !ok {
		return s
	}

	numSubscribers := maps.Clone(s.numSubscribers)
	count := current + change
	if count > 0 {
		numSubscribers[key] = count
		return s.with(s.entries, numSubscribers, s.cache)
	}

	delete(numSubscribers, key)
	entry := s.entries[key]
	entries := maps.Clone(s.entries)
	delete(entries, key)

	// Errors are never cached
	cache := s.cache
	if entry.status != StatusFailed {
		cache = cache.Add(key, entry, onEvict)
	}
	return s.with(entries, numSubscribers, cache)
}

func (s *State[T]) loadFulfilled(key string, data T, onEvict func(string, *Entry[T])) (*State[T], SettleOutcome) {
	if s.IsLive(key) {
		return s.with(withEntry(s.entries, key, Ready(data)), s.numSubscribers, s.cache), SettleLive
	}

	// Everybody left while loading. The loading entry was demoted into the cache; if it has since
	// been evicted the result has nowhere to go.
	if !s.cache.Has(key) {
		return s, SettleDropped
	}
	entry := Ready(data)
	return s.with(s.entries, s.numSubscribers, s.cache.Add(key, &entry, onEvict)), SettleCached
}

func (s *State[T]) loadRejected(key string, err error) (*State[T], SettleOutcome) {
	if s.IsLive(key) {
		return s.with(withEntry(s.entries, key, Failed[T](err)), s.numSubscribers, s.cache), SettleLive
	}

	// Drop the loading placeholder so the next subscribe fetches again
	if cached, ok := s.cache.Peek(key); ok && cached.status == StatusLoading {
		_, _, cache := s.cache.Remove(key)
		return s.with(s.entries, s.numSubscribers, cache), SettleDropped
	}
	return s, SettleDropped
}
