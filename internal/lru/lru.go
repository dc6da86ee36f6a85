// Package lru implements a bounded least-recently-used store as an immutable value.
//
// Every operation that changes the content returns a new *LRU and leaves the receiver untouched, so
// a store can be kept inside application state and compared by pointer. Operations that end up
// changing nothing return the receiver itself.
package lru

import (
	"fmt"
	"maps"
	"slices"
)

type LRU[K comparable, V comparable] struct {
	capacity int
	items    map[K]V
	// Most recently used first
	order []K
}

func New[K comparable, V comparable](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		panic(fmt.Sprintf("lru: capacity must be positive, got %d", capacity))
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    map[K]V{},
		order:    []K{},
	}
}

func (l *LRU[K, V]) Capacity() int {
	return l.capacity
}

func (l *LRU[K, V]) Len() int {
	return len(l.order)
}

func (l *LRU[K, V]) Has(key K) bool {
	_, ok := l.items[key]
	return ok
}

// Peek returns the item stored under key without touching its position
func (l *LRU[K, V]) Peek(key K) (V, bool) {
	item, ok := l.items[key]
	return item, ok
}

// Keys returns the stored keys, most recently used first
func (l *LRU[K, V]) Keys() []K {
	return slices.Clone(l.order)
}

// Add stores item under key and marks key as the most recently used.
//
// Refreshing a key that is already present never evicts anything. Inserting a new key into a full
// store drops the least recently used entry and calls onEvict (when non-nil) once for it.
func (l *LRU[K, V]) Add(key K, item V, onEvict func(key K, item V)) *LRU[K, V] {
	if oldItem, ok := l.items[key]; ok {
		items := l.items
		if oldItem != item {
			items = maps.Clone(l.items)
			items[key] = item
		}

		order := l.order
		if l.order[0] != key {
			order = make([]K, 0, len(l.order))
			order = append(order, key)
			for _, k := range l.order {
				if k != key {
					order = append(order, k)
				}
			}
		}

		if oldItem == item && l.order[0] == key {
			return l
		}
		return &LRU[K, V]{capacity: l.capacity, items: items, order: order}
	}

	keep := min(l.capacity-1, len(l.order))

	items := make(map[K]V, keep+1)
	order := make([]K, 0, keep+1)
	items[key] = item
	order = append(order, key)
	for _, k := range l.order[:keep] {
		items[k] = l.items[k]
		order = append(order, k)
	}

	if onEvict != nil {
		for _, k := range l.order[keep:] {
			onEvict(k, l.items[k])
		}
	}

	return &LRU[K, V]{capacity: l.capacity, items: items, order: order}
}

// Remove takes key out of the store, returning the removed item
func (l *LRU[K, V]) Remove(key K) (V, bool, *LRU[K, V]) {
	item, ok := l.items[key]
	if !ok {
		return item, false, l
	}

	items := maps.Clone(l.items)
	delete(items, key)

	order := make([]K, 0, len(l.order)-1)
	for _, k := range l.order {
		if k != key {
			order = append(order, k)
		}
	}

	return item, true, &LRU[K, V]{capacity: l.capacity, items: items, order: order}
}

// PeekReplace swaps the item stored under key without changing its position.
// A missing key leaves the store unchanged.
func (l *LRU[K, V]) PeekReplace(key K, item V) *LRU[K, V] {
	oldItem, ok := l.items[key]
	if !ok || oldItem == item {
		return l
	}

	items := maps.Clone(l.items)
	items[key] = item
	return &LRU[K, V]{capacity: l.capacity, items: items, order: l.order}
}
