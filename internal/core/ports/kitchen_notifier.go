package ports

import (
	"context"
	"time"
)

// KitchenTicket is the handoff payload published when an order is finalized.
type KitchenTicket struct {
	OrderID      string        `json:"order_id"`
	SessionID    string        `json:"session_id"`
	RestaurantID string        `json:"restaurant_id"`
	LaneID       string        `json:"lane_id"`
	Lines        []KitchenLine `json:"lines"`
	Totals       KitchenTotals `json:"totals"`
	FinalizedAt  time.Time     `json:"finalized_at"`
}

// KitchenLine is one prepared item on the ticket.
type KitchenLine struct {
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Size      string   `json:"size,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Combo     bool     `json:"combo,omitempty"`
}

// KitchenTotals carries the frozen money view of the ticket.
type KitchenTotals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// KitchenNotifier hands a finalized order off to the kitchen. Publishing
// happens after the finalizing turn committed; a failed publish is retried,
// never rolled back into the conversation.
type KitchenNotifier interface {
	PublishTicket(ctx context.Context, ticket KitchenTicket) error
}
