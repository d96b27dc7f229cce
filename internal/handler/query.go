package handler

import (
	"net/http"
	"strconv"

	"payhub/internal/model"
	"payhub/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 50
)

// parseListFilter applies the pagination contract: page >= 1 default 1,
// limit 1..50 default 10, status optionally one of the numeric codes 0..4.
func parseListFilter(r *http.Request) (model.ListFilter, service.FieldErrors) {
	q := r.URL.Query()
	filter := model.ListFilter{Page: defaultPage, Limit: defaultLimit}
	var errs service.FieldErrors

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			errs = append(errs, service.FieldError{Field: "page", Reason: "must be an integer >= 1"})
		} else {
			filter.Page = page
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			errs = append(errs, service.FieldError{Field: "limit", Reason: "must be an integer between 1 and 50"})
		} else {
			filter.Limit = limit
		}
	}

	if raw := q.Get("status"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, service.FieldError{Field: "status", Reason: "must be an integer code 0..4"})
		} else if status, perr := model.ParseStatusCode(code); perr != nil {
			errs = append(errs, service.FieldError{Field: "status", Reason: "must be an integer code 0..4"})
		} else {
			filter.Status = &status
		}
	}

	return filter, errs
}
