// Package disposable provides handles that release a resource exactly once
package disposable

import "sync"

type Disposable interface {
	Dispose()
}

type funcDisposable struct {
	once sync.Once
	fn   func()
}

func (d *funcDisposable) Dispose() {
	d.once.Do(d.fn)
}

// Create wraps fn in a Disposable that runs it on the first Dispose only
func Create(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

type empty struct{}

func (empty) Dispose() {}

// Empty holds nothing
var Empty Disposable = empty{}

// Serial holds at most one Disposable at a time.
//
// Set installs the new handle before disposing the previous one. Once the Serial itself is
// disposed, anything set on it is disposed right away.
type Serial struct {
	mu       sync.Mutex
	current  Disposable
	disposed bool
}

func (s *Serial) Set(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return
	}
	previous := s.current
	s.current = d
	s.mu.Unlock()

	if previous != nil {
		previous.Dispose()
	}
}

func (s *Serial) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.Dispose()
	}
}

func (s *Serial) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Composite disposes a group of handles together
type Composite struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

func NewComposite(items ...Disposable) *Composite {
	return &Composite{items: items}
}

func (c *Composite) Add(d Disposable) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for _, d := range items {
		d.Dispose()
	}
}
