package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"payhub/internal/model"
)

// OrderStore is the narrow storage contract the service drives. The
// Postgres implementation lives in internal/database; tests substitute an
// in-memory fake.
type OrderStore interface {
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	InsertIfAbsent(ctx context.Context, order model.Order) (*model.Order, bool, error)
	CompareAndUpdateStatus(ctx context.Context, orderNo string, expected, next model.Status, patch model.StatusPatch) (*model.Order, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Order, int, error)
}

// maxTransitionAttempts bounds the optimistic retry loop. Exhaustion is
// reported as model.ErrConflict; the caller re-reads and decides, the
// service never spins.
const maxTransitionAttempts = 3

type OrderService struct {
	store OrderStore
}

func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

type CreateSpec struct {
	OrderNo  string
	Amount   float64
	Currency string
}

func (sp CreateSpec) Validate() FieldErrors {
	var errs FieldErrors
	if sp.OrderNo == "" {
		errs = append(errs, FieldError{Field: "order_no", Reason: "must not be empty"})
	}
	if sp.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Reason: "must be greater than zero"})
	}
	if !validCurrency(sp.Currency) {
		errs = append(errs, FieldError{Field: "currency", Reason: "must be a three-letter code"})
	}
	return errs
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Create persists a new Pending order. A repeated submission with the same
// order number is not a duplicate charge: the stored order is returned
// unchanged.
func (s *OrderService) Create(ctx context.Context, spec CreateSpec) (*model.Order, bool, error) {
	spec.Currency = strings.ToUpper(strings.TrimSpace(spec.Currency))
	if errs := spec.Validate(); len(errs) > 0 {
		return nil, false, errs
	}

	now := time.Now().UTC()
	order := model.Order{
		OrderNo:   spec.OrderNo,
		Status:    model.StatusPending,
		Amount:    spec.Amount,
		Currency:  spec.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, created, err := s.store.InsertIfAbsent(ctx, order)
	if err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}
	if !created {
		slog.Info("duplicate order submission", "order_no", spec.OrderNo, "status", stored.Status)
	}
	return stored, created, nil
}

// ApplyGatewayCallback ingests an asynchronous gateway outcome. A stale or
// duplicate callback yields model.ErrIllegalTransition together with the
// current order so the transport can acknowledge it as a no-op.
func (s *OrderService) ApplyGatewayCallback(ctx context.Context, orderNo string, outcome model.Event, gatewayRef string) (*model.Order, error) {
	if outcome != model.EventGatewaySuccess && outcome != model.EventGatewayFailure {
		return nil, FieldErrors{{Field: "outcome", Reason: "must be gateway-success or gateway-failure"}}
	}

	patch := model.StatusPatch{}
	if gatewayRef != "" {
		patch.GatewayReference = &gatewayRef
	}
	return s.applyEvent(ctx, orderNo, outcome, patch)
}

type RefundSpec struct {
	OrderNo      string
	RefundReason string
}

func (sp RefundSpec) Validate() FieldErrors {
	var errs FieldErrors
	if sp.OrderNo == "" {
		errs = append(errs, FieldError{Field: "order_no", Reason: "must not be empty"})
	}
	return errs
}

// RequestRefund moves a Paid order to Refunded, storing the reason. Any
// other current status fails with model.ErrIllegalTransition and leaves the
// order untouched.
func (s *OrderService) RequestRefund(ctx context.Context, spec RefundSpec) (*model.Order, error) {
	if errs := spec.Validate(); len(errs) > 0 {
		return nil, errs
	}

	patch := model.StatusPatch{}
	if spec.RefundReason != "" {
		patch.RefundReason = &spec.RefundReason
	}
	return s.applyEvent(ctx, spec.OrderNo, model.EventRefundApproved, patch)
}

// Cancel withdraws a Pending order before the gateway acknowledges it.
func (s *OrderService) Cancel(ctx context.Context, orderNo string) (*model.Order, error) {
	if orderNo == "" {
		return nil, FieldErrors{{Field: "order_no", Reason: "must not be empty"}}
	}
	return s.applyEvent(ctx, orderNo, model.EventClientCancel, model.StatusPatch{})
}

func (s *OrderService) Get(ctx context.Context, orderNo string) (*model.Order, error) {
	return s.store.GetByOrderNo(ctx, orderNo)
}

func (s *OrderService) List(ctx context.Context, filter model.ListFilter) ([]model.Order, int, error) {
	return s.store.List(ctx, filter)
}

// applyEvent is the single write path for transitions: read, decide with
// the pure transition table, compare-and-update against the observed
// status. A lost race re-reads and re-decides up to maxTransitionAttempts.
func (s *OrderService) applyEvent(ctx context.Context, orderNo string, ev model.Event, patch model.StatusPatch) (*model.Order, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		current, err := s.store.GetByOrderNo(ctx, orderNo)
		if err != nil {
			return nil, err
		}

		next, err := model.Transition(current.Status, ev)
		if err != nil {
			slog.Info("transition rejected", "order_no", orderNo, "status", current.Status, "event", ev)
			return current, err
		}

		updated, err := s.store.CompareAndUpdateStatus(ctx, orderNo, current.Status, next, patch)
		if errors.Is(err, model.ErrConflict) {
			slog.Warn("transition lost race, retrying", "order_no", orderNo, "event", ev, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", ev, err)
		}
		return updated, nil
	}
	return nil, model.ErrConflict
}
