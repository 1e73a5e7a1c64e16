package models

import "fmt"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var AllStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled,
}

// rank orders the forward sequence; cancelled sits outside it.
var rank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusCompleted: 4,
}

func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
}

func (s OrderStatus) Valid() bool {
	_, ok := rank[s]
	return ok || s == StatusCancelled
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Cancellable reports whether s may still move to cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition allows any forward move along the sequence, or cancellation
// from pending/confirmed. Terminal states never move.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return from.Cancellable()
	}
	return rank[to] > rank[from]
}

func CheckTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// DeriveOrderStatus computes the parent status from its sub-orders. The
// second result is false when there are no children and the parent must stay as is.
func DeriveOrderStatus(children []OrderStatus) (OrderStatus, bool) {
	if len(children) == 0 {
		return "", false
	}
	switch {
	case allOf(children, StatusCompleted):
		return StatusCompleted, true
	case allOf(children, StatusCancelled):
		return StatusCancelled, true
	case anyOf(children, StatusPreparing):
		return StatusPreparing, true
	case allOf(children, StatusReady):
		return StatusReady, true
	default:
		return StatusConfirmed, true
	}
}

func allOf(ss []OrderStatus, want OrderStatus) bool {
	for _, s := range ss {
		if s != want {
			return false
		}
	}
	return true
}

func anyOf(ss []OrderStatus, want OrderStatus) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
