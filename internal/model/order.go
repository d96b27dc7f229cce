package model

import (
	"encoding/json"
	"time"
)

type Order struct {
	OrderNo          string    `json:"order_no"`
	Status           Status    `json:"status"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	GatewayReference *string   `json:"gateway_reference"`
	RefundReason     *string   `json:"refund_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	type Alias Order
	return json.Marshal(&struct {
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
		*Alias
	}{
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		UpdatedAt: o.UpdatedAt.Format(time.RFC3339),
		Alias:     (*Alias)(&o),
	})
}

// StatusPatch carries the columns a status transition may touch besides the
// status itself. GatewayReference is written at most once; the store keeps
// the first value it sees.
type StatusPatch struct {
	GatewayReference *string
	RefundReason     *string
}
