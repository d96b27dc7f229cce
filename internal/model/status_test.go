package model

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	allStatuses := []Status{StatusPending, StatusPaid, StatusFailed, StatusCancelled, StatusRefunded}
	allEvents := []Event{EventGatewaySuccess, EventGatewayFailure, EventClientCancel, EventRefundApproved}

	allowed := map[Status]map[Event]Status{
		StatusPending: {
			EventGatewaySuccess: StatusPaid,
			EventGatewayFailure: StatusFailed,
			EventClientCancel:   StatusCancelled,
		},
		StatusPaid: {
			EventRefundApproved: StatusRefunded,
		},
	}

	for _, from := range allStatuses {
		for _, ev := range allEvents {
			next, err := Transition(from, ev)
			want, ok := allowed[from][ev]
			if ok {
				if err != nil {
					t.Errorf("Transition(%s, %s): unexpected error %v", from, ev, err)
					continue
				}
				if next != want {
					t.Errorf("Transition(%s, %s) = %s, want %s", from, ev, next, want)
				}
				continue
			}
			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("Transition(%s, %s): want ErrIllegalTransition, got (%q, %v)", from, ev, next, err)
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.Terminal() {
		t.Error("Pending must not be terminal")
	}
	for _, s := range []Status{StatusPaid, StatusFailed, StatusCancelled, StatusRefunded} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}

func TestParseStatusCode(t *testing.T) {
	t.Parallel()

	want := []Status{StatusPending, StatusPaid, StatusFailed, StatusCancelled, StatusRefunded}
	for code, s := range want {
		got, err := ParseStatusCode(code)
		if err != nil {
			t.Fatalf("ParseStatusCode(%d): %v", code, err)
		}
		if got != s {
			t.Errorf("ParseStatusCode(%d) = %s, want %s", code, got, s)
		}
	}

	for _, code := range []int{-1, 5, 42} {
		if _, err := ParseStatusCode(code); err == nil {
			t.Errorf("ParseStatusCode(%d): want error", code)
		}
	}
}
