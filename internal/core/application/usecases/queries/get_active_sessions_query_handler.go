package queries

import (
	"context"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/session"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveSessionsQueryHandler retrieves the occupied lanes of a restaurant
// from the database. Uses direct SQL queries for optimal read performance in
// the CQRS pattern.
type GetActiveSessionsQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveSessionsQueryHandler creates a handler for active session
// queries.
func NewGetActiveSessionsQueryHandler(db *gorm.DB) GetActiveSessionsQueryHandler {
	return GetActiveSessionsQueryHandler{db: db}
}

// Handle executes the query to retrieve every active session of the
// restaurant, ordered by lane.
func (h GetActiveSessionsQueryHandler) Handle(
	ctx context.Context,
	query GetActiveSessionsQuery,
) ([]GetActiveSessionsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sessions := make([]GetActiveSessionsQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			lane_id,
			state,
			turn_counter,
			last_activity_at,
			idle_deadline
		FROM sessions
		WHERE restaurant_id = ? AND state != ?
		ORDER BY lane_id
	`, query.RestaurantID(), int(session.Idle)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var response GetActiveSessionsQueryResponse
		var id uuid.UUID
		var state int

		err = rows.Scan(
			&id,
			&response.LaneID,
			&state,
			&response.TurnCounter,
			&response.LastActivityAt,
			&response.IdleDeadline,
		)
		if err != nil {
			return nil, err
		}

		sessionID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		response.SessionID = sessionID
		response.State = session.State(state).String()

		sessions = append(sessions, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
