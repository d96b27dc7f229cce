package model

import "errors"

var (
	ErrNotFound = errors.New("order not found")
	ErrConflict = errors.New("order status changed concurrently")
)
