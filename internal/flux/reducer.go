package flux

import "maps"

type Handler[S any] func(state S, action Action) S

type Handlers[S any] map[string]Handler[S]

type ReduceFunc[S any] func(state S, action Action) S

// Reducer routes actions to the handler registered for their type
type Reducer[S any] struct {
	initial  S
	handlers Handlers[S]
}

func CreateReducer[S any](initial S, handlers Handlers[S]) Reducer[S] {
	return Reducer[S]{
		initial:  initial,
		handlers: maps.Clone(handlers),
	}
}

func (r Reducer[S]) Initial() S {
	return r.initial
}

// Reduce applies the matching handler. Unknown action types leave the state unchanged.
func (r Reducer[S]) Reduce(state S, action Action) S {
	handler, ok := r.handlers[action.Type]
	if !ok {
		return state
	}
	return handler(state, action)
}

// HandlePromise builds the handlers for the phases of a promise action. Nil phases are left out.
func HandlePromise[S any](actionType string, pending, fulfilled, rejected Handler[S]) Handlers[S] {
	handlers := Handlers[S]{}
	if pending != nil {
		handlers[Pending(actionType)] = pending
	}
	if fulfilled != nil {
		handlers[Fulfilled(actionType)] = fulfilled
	}
	if rejected != nil {
		handlers[Rejected(actionType)] = rejected
	}
	return handlers
}

// Merge combines handler sets. Later sets win on conflicting types.
func Merge[S any](sets ...Handlers[S]) Handlers[S] {
	merged := Handlers[S]{}
	for _, set := range sets {
		maps.Copy(merged, set)
	}
	return merged
}

// DispatchIfDifferent builds thunks that only dispatch when value differs from the one currently in state
func DispatchIfDifferent[S any, V comparable](
	getValue func(state S) V,
	makeAction func(value V, state S) Action,
) func(value V) Thunk[S] {
	return func(value V) Thunk[S] {
		return func(d Dispatcher[S]) {
			state := d.State()
			if getValue(state) != value {
				d.Dispatch(makeAction(value, state))
			}
		}
	}
}
