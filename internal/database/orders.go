package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payhub/internal/model"
)

// OrderStore is the Postgres-backed order storage. All writes go through
// either InsertIfAbsent or CompareAndUpdateStatus, so a row can never hold
// a status that no transition produced.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `order_no, status, amount, currency, gateway_reference, refund_reason, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*model.Order, error) {
	var o model.Order
	var status string
	var gatewayRef, refundReason sql.NullString
	if err := row.Scan(&o.OrderNo, &status, &o.Amount, &o.Currency, &gatewayRef, &refundReason, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = model.Status(status)
	if gatewayRef.Valid {
		o.GatewayReference = &gatewayRef.String
	}
	if refundReason.Valid {
		o.RefundReason = &refundReason.String
	}
	return &o, nil
}

func (s *OrderStore) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_no = $1`, orderNo)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// InsertIfAbsent persists a new order unless one with the same order number
// already exists. Duplicate submission is not an error: the stored row is
// returned unchanged with created=false.
func (s *OrderStore) InsertIfAbsent(ctx context.Context, order model.Order) (*model.Order, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO orders (order_no, status, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (order_no) DO NOTHING
		RETURNING `+orderColumns,
		order.OrderNo, string(order.Status), order.Amount, order.Currency, time.Now().UTC(),
	)

	o, err := scanOrder(row)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert order: %w", err)
	}

	// Lost the insert to an earlier submission; hand back the winner.
	existing, err := s.GetByOrderNo(ctx, order.OrderNo)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// CompareAndUpdateStatus applies a status transition only if the stored
// status still equals expected at write time. A lost race surfaces as
// ErrConflict for the caller to re-read and re-evaluate, never a silent
// overwrite. The gateway reference keeps its first written value.
func (s *OrderStore) CompareAndUpdateStatus(ctx context.Context, orderNo string, expected, next model.Status, patch model.StatusPatch) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1,
		    gateway_reference = COALESCE(gateway_reference, $2),
		    refund_reason = COALESCE($3, refund_reason),
		    updated_at = $4
		WHERE order_no = $5 AND status = $6
		RETURNING `+orderColumns,
		string(next), patch.GatewayReference, patch.RefundReason, time.Now().UTC(), orderNo, string(expected),
	)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetByOrderNo(ctx, orderNo); errors.Is(getErr, model.ErrNotFound) {
				return nil, model.ErrNotFound
			}
			return nil, model.ErrConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

// List returns one page of orders, newest first with an order_no tiebreak
// so offset pages stay deterministic, plus the total match count.
func (s *OrderStore) List(ctx context.Context, filter model.ListFilter) ([]model.Order, int, error) {
	where := ``
	args := []any{}
	if filter.Status != nil {
		where = `WHERE status = $1`
		args = append(args, string(*filter.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM orders %s
		ORDER BY created_at DESC, order_no DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, total, nil
}
