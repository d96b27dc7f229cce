package handler

import (
	"encoding/json"
	"net/http"

	"payhub/internal/service"
)

const (
	codeValidationFailed = "validation_failed"
	codeOrderNotFound    = "order_not_found"
	codeNotAllowed       = "transition_not_allowed"
	codeConflict         = "conflict"
	codeInvalidBody      = "invalid_request_body"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeFieldErrors(w http.ResponseWriter, errs service.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:  errs.Error(),
		Code:   codeValidationFailed,
		Fields: errs,
	})
}
