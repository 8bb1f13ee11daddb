package http

import (
	"time"

	"drivethru/internal/core/domain/model/order"
)

// Error is the uniform error body of the lane API.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StartSessionRequest opens a session for a car that pulled up to a lane.
type StartSessionRequest struct {
	RestaurantID string `json:"restaurantId"`
	LaneID       string `json:"laneId"`
}

// StartSessionResponse carries the new session and its greeting.
type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
	OrderID   string `json:"orderId"`
	State     string `json:"state"`
	Greeting  string `json:"greeting"`
}

// RunTurnRequest carries one utterance. TurnKey is the caller's idempotency
// key for the turn; retried deliveries must reuse it. Exactly one of
// Utterance and Audio must be set.
type RunTurnRequest struct {
	TurnKey   string `json:"turnKey"`
	Utterance string `json:"utterance,omitempty"`
	Audio     []byte `json:"audio,omitempty"`
}

// RunTurnResponse is the outcome of one turn.
type RunTurnResponse struct {
	SessionID   string       `json:"sessionId"`
	State       string       `json:"state"`
	Action      string       `json:"action"`
	Outcome     string       `json:"outcome,omitempty"`
	Reply       string       `json:"reply"`
	ReplyAudio  []byte       `json:"replyAudio,omitempty"`
	Diffs       []order.Diff `json:"diffs,omitempty"`
	Totals      Totals       `json:"totals"`
	Finalized   bool         `json:"finalized"`
	SessionOver bool         `json:"sessionOver"`
}

// Totals is the money view of an order in API responses.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	TaxCents      int64 `json:"taxCents"`
	TotalCents    int64 `json:"totalCents"`
}

// OrderSnapshotResponse is the current order of one session.
type OrderSnapshotResponse struct {
	SessionID string               `json:"sessionId"`
	OrderID   string               `json:"orderId"`
	State     string               `json:"state"`
	Version   int                  `json:"version"`
	Frozen    bool                 `json:"frozen"`
	Lines     []order.LineSnapshot `json:"lines"`
	Totals    Totals               `json:"totals"`
}

// ActiveSessionResponse is one occupied lane.
type ActiveSessionResponse struct {
	SessionID      string    `json:"sessionId"`
	LaneID         string    `json:"laneId"`
	State          string    `json:"state"`
	TurnCounter    int       `json:"turnCounter"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	IdleDeadline   time.Time `json:"idleDeadline"`
}
