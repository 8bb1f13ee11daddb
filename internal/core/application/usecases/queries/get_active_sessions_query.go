package queries

import (
	"errors"
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/errs"
	"drivethru/internal/pkg/guard"
)

var (
	ErrGetActiveSessionsQueryIsNotConstructed = errors.New(
		"GetActiveSessionsQuery must be created via NewGetActiveSessionsQuery constructor",
	)
)

// GetActiveSessionsQuery retrieves every lane of a restaurant with a car in
// it: the occupying session, its conversation state, and how long the lane
// has been quiet.
//
// Example:
//
//	query, err := queries.NewGetActiveSessionsQuery("rest-001")
//	if err != nil {
//	    return err
//	}
//
//	lanes, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to list active lanes: %w", err)
//	}
//
//	for _, lane := range lanes {
//	    fmt.Printf("lane %s: %s, %d turns\n", lane.LaneID, lane.State, lane.TurnCounter)
//	}
type GetActiveSessionsQuery struct {
	restaurantID string
	guard        guard.ConstructorGuard
}

// NewGetActiveSessionsQuery creates a query for the given restaurant.
func NewGetActiveSessionsQuery(restaurantID string) (GetActiveSessionsQuery, error) {
	if restaurantID == "" {
		return GetActiveSessionsQuery{}, errs.NewValueIsRequiredError("restaurantID")
	}

	return GetActiveSessionsQuery{
		restaurantID: restaurantID,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// RestaurantID returns the restaurant whose lanes are requested.
func (q GetActiveSessionsQuery) RestaurantID() string {
	return q.restaurantID
}

// Validate ensures the query was created through the constructor.
func (q GetActiveSessionsQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveSessionsQueryIsNotConstructed)
}

// GetActiveSessionsQueryResponse represents one occupied lane in the read
// model.
type GetActiveSessionsQueryResponse struct {
	SessionID      kernel.UUID
	LaneID         string
	State          string
	TurnCounter    int
	LastActivityAt time.Time
	IdleDeadline   time.Time
}
