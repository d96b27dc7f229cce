package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"payhub/internal/model"
	"payhub/internal/service"
)

type gatewayCallbackRequest struct {
	OrderNo          string `json:"order_no"`
	Outcome          string `json:"outcome"` // "success" or "failure"
	GatewayReference string `json:"gateway_reference"`
}

// GatewayCallbackHandler ingests asynchronous gateway outcomes. The
// gateway authenticates with a shared token, not a user credential. A
// stale or duplicate callback is acknowledged with 200 and the current
// order so the gateway stops redelivering; an exhausted optimistic retry
// returns 409 and relies on the gateway's own redelivery.
func GatewayCallbackHandler(orderSvc *service.OrderService, callbackToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Callback-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(callbackToken)) != 1 {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid callback token")
			return
		}

		var req gatewayCallbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidBody, "invalid json")
			return
		}

		var outcome model.Event
		switch req.Outcome {
		case "success":
			outcome = model.EventGatewaySuccess
		case "failure":
			outcome = model.EventGatewayFailure
		default:
			writeFieldErrors(w, service.FieldErrors{{Field: "outcome", Reason: "must be success or failure"}})
			return
		}

		order, err := orderSvc.ApplyGatewayCallback(r.Context(), req.OrderNo, outcome, req.GatewayReference)
		if err != nil {
			var fieldErrs service.FieldErrors
			switch {
			case errors.As(err, &fieldErrs):
				writeFieldErrors(w, fieldErrs)
			case errors.Is(err, model.ErrNotFound):
				writeError(w, http.StatusNotFound, codeOrderNotFound, "unknown order number")
			case errors.Is(err, model.ErrIllegalTransition):
				slog.Info("stale gateway callback discarded", "order_no", req.OrderNo, "outcome", req.Outcome, "status", order.Status)
				writeJSON(w, http.StatusOK, order)
			case errors.Is(err, model.ErrConflict):
				writeError(w, http.StatusConflict, codeConflict, "concurrent update, redeliver callback")
			default:
				slog.Error("gateway callback failed", "order_no", req.OrderNo, "error", err)
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		slog.Info("gateway callback applied", "order_no", order.OrderNo, "status", order.Status)
		writeJSON(w, http.StatusOK, order)
	}
}
