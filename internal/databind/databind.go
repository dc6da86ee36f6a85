// Package databind connects consumers to a flux store.
//
// A Component selects its props from the state and lists observers. While the component is mounted
// each observer keeps exactly one observation open for the key it derives from the props, and
// replaces it whenever that key changes.
package databind

import (
	"fmt"
	"sync"

	"github.com/Amund211/pagecache/internal/disposable"
	"github.com/Amund211/pagecache/internal/flux"
)

type Store[S any] interface {
	flux.Dispatcher[S]
	Subscribe(listener func()) (unsubscribe func())
}

type Observer[S any, P any] struct {
	// Derives the watched key from the props. Compared with ShallowEqual.
	Key func(props P) any
	// Starts watching the data for props
	Observe func(props P, d flux.Dispatcher[S]) disposable.Disposable
}

type Component[S any, P any, A any] struct {
	Name   string
	Select func(state S) P
	// Binds the actions available to the component. Optional.
	Actions   func(d flux.Dispatcher[S]) A
	Observers []Observer[S, P]
	// Called with the current props after mounting and after every update. Optional.
	Render func(props P, actions A)
}

type Binding[S any, P any, A any] struct {
	component Component[S, P, A]
	store     Store[S]
	actions   A
	slots     []*disposable.Serial

	mu       sync.Mutex
	props    P
	keys     []any
	mounted  bool
	updating bool
	again    bool

	unsubscribe func()
}

// Mount observes every observer of component with the current props and keeps the binding updated
// as the store changes until Unmount is called
func Mount[S any, P any, A any](store Store[S], component Component[S, P, A]) *Binding[S, P, A] {
	if component.Select == nil {
		panic(fmt.Sprintf("databind: %s has no Select", componentName(component.Name)))
	}

	b := &Binding[S, P, A]{
		component: component,
		store:     store,
		slots:     make([]*disposable.Serial, len(component.Observers)),
		keys:      make([]any, len(component.Observers)),
	}
	if component.Actions != nil {
		b.actions = component.Actions(store)
	}

	// Listen first so nothing that settles while observing is missed
	b.unsubscribe = store.Subscribe(b.Update)

	props := component.Select(store.State())
	for i, observer := range component.Observers {
		b.keys[i] = observer.Key(props)
		b.slots[i] = &disposable.Serial{}
	}
	for i, observer := range component.Observers {
		b.slots[i].Set(observer.Observe(props, store))
	}

	b.mu.Lock()
	b.props = props
	b.mounted = true
	b.mu.Unlock()

	b.Update()
	return b
}

func componentName(name string) string {
	if name == "" {
		return "Component"
	}
	return name
}

func (b *Binding[S, P, A]) Name() string {
	return componentName(b.component.Name)
}

func (b *Binding[S, P, A]) Props() P {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.props
}

func (b *Binding[S, P, A]) Actions() A {
	return b.actions
}

// Update reselects the props and re-observes every observer whose key changed.
//
// The new observation is opened before the old one is disposed, so data shared by both keys stays
// subscribed throughout. Calls made while an update is running are folded into it.
func (b *Binding[S, P, A]) Update() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	if b.updating {
		b.again = true
		b.mu.Unlock()
		return
	}
	b.updating = true

	for {
		b.again = false

		props := b.component.Select(b.store.State())
		b.props = props

		var changed []int
		for i, observer := range b.component.Observers {
			key := observer.Key(props)
			if !ShallowEqual(key, b.keys[i]) {
				b.keys[i] = key
				changed = append(changed, i)
			}
		}
		b.mu.Unlock()

		for _, i := range changed {
			b.slots[i].Set(b.component.Observers[i].Observe(props, b.store))
		}
		if b.component.Render != nil {
			b.component.Render(props, b.actions)
		}

		b.mu.Lock()
		if !b.again || !b.mounted {
			break
		}
	}

	b.updating = false
	b.mu.Unlock()
}

// Unmount disposes every observation exactly once and stops listening to the store
func (b *Binding[S, P, A]) Unmount() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.mounted = false
	b.mu.Unlock()

	b.unsubscribe()
	for _, slot := range b.slots {
		slot.Dispose()
	}
}
