package asynccache

import "fmt"

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Entry is the value of one key: still loading, loaded, or failed to load
type Entry[T any] struct {
	status Status
	data   T
	err    error
}

func Loading[T any]() Entry[T] {
	return Entry[T]{status: StatusLoading}
}

func Ready[T any](data T) Entry[T] {
	return Entry[T]{status: StatusReady, data: data}
}

func Failed[T any](err error) Entry[T] {
	return Entry[T]{status: StatusFailed, err: err}
}

func (e Entry[T]) Status() Status {
	return e.status
}

// Data returns the loaded value. ok is false unless the entry is ready.
func (e Entry[T]) Data() (data T, ok bool) {
	return e.data, e.status == StatusReady
}

// Err returns the fetch error of a failed entry, nil otherwise
func (e Entry[T]) Err() error {
	return e.err
}

// Match calls the function for the state the entry is in
func (e Entry[T]) Match(loading func(), ready func(data T), failed func(err error)) {
	switch e.status {
	case StatusReady:
		ready(e.data)
	case StatusFailed:
		failed(e.err)
	default:
		loading()
	}
}

func (e Entry[T]) String() string {
	switch e.status {
	case StatusReady:
		return fmt.Sprintf("Ready(%v)", e.data)
	case StatusFailed:
		return fmt.Sprintf("Failed(%v)", e.err)
	}
	return "Loading"
}
