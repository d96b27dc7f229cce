package model

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// Event is the causal trigger of a status change.
type Event string

const (
	EventGatewaySuccess Event = "gateway-success"
	EventGatewayFailure Event = "gateway-failure"
	EventClientCancel   Event = "client-cancel"
	EventRefundApproved Event = "refund-approved"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// statusCodes fixes the numeric wire codes used by the list filter.
var statusCodes = []Status{
	StatusPending,
	StatusPaid,
	StatusFailed,
	StatusCancelled,
	StatusRefunded,
}

// ParseStatusCode maps a numeric filter code to a status.
func ParseStatusCode(code int) (Status, error) {
	if code < 0 || code >= len(statusCodes) {
		return "", fmt.Errorf("unknown status code %d", code)
	}
	return statusCodes[code], nil
}

// Terminal reports whether no further polling is useful: Paid still admits
// a refund, but the payment leg itself is settled.
func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventGatewaySuccess: StatusPaid,
		EventGatewayFailure: StatusFailed,
		EventClientCancel:   StatusCancelled,
	},
	StatusPaid: {
		EventRefundApproved: StatusRefunded,
	},
}

// Transition computes the next status for an event against the current one.
// A pair outside the table is not a system failure: it signals a stale or
// duplicate event and returns ErrIllegalTransition for the caller to log
// and discard.
func Transition(current Status, ev Event) (Status, error) {
	if next, ok := transitions[current][ev]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, current)
}
