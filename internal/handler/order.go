package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"payhub/internal/model"
	"payhub/internal/service"
)

type createOrderRequest struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type createOrderResponse struct {
	OrderNo string       `json:"order_no"`
	Status  model.Status `json:"status"`
}

// CreateOrderHandler accepts a new order. The idempotency key doubles as
// the order number; repeating a request with the same key returns the
// already-stored order. Without a key the server assigns a fresh number,
// which forfeits duplicate-submission safety for that request.
func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidBody, "invalid json")
			return
		}

		orderNo := req.IdempotencyKey
		if orderNo == "" {
			orderNo = uuid.NewString()
		}

		order, created, err := orderSvc.Create(r.Context(), service.CreateSpec{
			OrderNo:  orderNo,
			Amount:   req.Amount,
			Currency: req.Currency,
		})
		if err != nil {
			var fieldErrs service.FieldErrors
			if errors.As(err, &fieldErrs) {
				writeFieldErrors(w, fieldErrs)
				return
			}
			slog.Error("order create failed", "order_no", orderNo, "error", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		if created {
			slog.Info("order created", "order_no", order.OrderNo, "amount", order.Amount, "currency", order.Currency)
		}
		writeJSON(w, http.StatusOK, createOrderResponse{OrderNo: order.OrderNo, Status: order.Status})
	}
}

// GetOrderHandler is the status projection the polling agent reads. No
// side effects.
func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderNo := chi.URLParam(r, "orderNo")

		order, err := orderSvc.Get(r.Context(), orderNo)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, codeOrderNotFound, "unknown order number")
				return
			}
			slog.Error("order lookup failed", "order_no", orderNo, "error", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

type refundRequest struct {
	OrderNo      string `json:"order_no"`
	RefundReason string `json:"refund_reason,omitempty"`
}

func RefundHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidBody, "invalid json")
			return
		}

		order, err := orderSvc.RequestRefund(r.Context(), service.RefundSpec{
			OrderNo:      req.OrderNo,
			RefundReason: req.RefundReason,
		})
		if err != nil {
			writeTransitionError(w, req.OrderNo, "refund", err)
			return
		}

		slog.Info("order refunded", "order_no", order.OrderNo, "reason", req.RefundReason)
		writeJSON(w, http.StatusOK, order)
	}
}

type cancelOrderRequest struct {
	OrderNo string `json:"order_no"`
}

func CancelOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidBody, "invalid json")
			return
		}

		order, err := orderSvc.Cancel(r.Context(), req.OrderNo)
		if err != nil {
			writeTransitionError(w, req.OrderNo, "cancel", err)
			return
		}

		slog.Info("order cancelled", "order_no", order.OrderNo)
		writeJSON(w, http.StatusOK, order)
	}
}

// writeTransitionError maps service outcomes of client-initiated
// transitions: an off-table transition is the caller's fault (403), an
// exhausted optimistic retry asks the caller to re-read (409).
func writeTransitionError(w http.ResponseWriter, orderNo, op string, err error) {
	var fieldErrs service.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeFieldErrors(w, fieldErrs)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, "unknown order number")
	case errors.Is(err, model.ErrIllegalTransition):
		writeError(w, http.StatusForbidden, codeNotAllowed, op+" not allowed in current status")
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, "order changed concurrently, re-read and retry")
	default:
		slog.Error("order "+op+" failed", "order_no", orderNo, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type listOrdersResponse struct {
	Orders []model.Order `json:"orders"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
	Total  int           `json:"total"`
}

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, errs := parseListFilter(r)
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}

		orders, total, err := orderSvc.List(r.Context(), filter)
		if err != nil {
			slog.Error("order list failed", "error", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		if orders == nil {
			orders = []model.Order{}
		}
		writeJSON(w, http.StatusOK, listOrdersResponse{
			Orders: orders,
			Page:   filter.Page,
			Limit:  filter.Limit,
			Total:  total,
		})
	}
}
