package flux

import "context"

const (
	PendingSuffix   = "_PENDING"
	FulfilledSuffix = "_FULFILLED"
	RejectedSuffix  = "_REJECTED"
)

// Action is a flux standard action
type Action struct {
	Type    string
	Payload any
	Meta    any
	// Set when the payload is an error
	Error bool
}

func NewAction(actionType string, payload any, meta any) Action {
	_, isError := payload.(error)
	return Action{
		Type:    actionType,
		Payload: payload,
		Meta:    meta,
		Error:   isError,
	}
}

// Promise is an asynchronous operation carried as the payload of an action.
//
// Dispatching such an action reduces <type>_PENDING right away and later one of <type>_FULFILLED
// (payload: the value) or <type>_REJECTED (payload: the error). Meta is carried over to all three.
type Promise func(ctx context.Context) (any, error)

func NewPromise(actionType string, promise Promise, meta any) Action {
	if promise == nil {
		panic("flux: nil promise for " + actionType)
	}
	return NewAction(actionType, promise, meta)
}

func Pending(actionType string) string {
	return actionType + PendingSuffix
}

func Fulfilled(actionType string) string {
	return actionType + FulfilledSuffix
}

func Rejected(actionType string) string {
	return actionType + RejectedSuffix
}
