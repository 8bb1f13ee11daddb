// Package ports defines the contracts between the domain layer and
// infrastructure, enabling dependency inversion and testability.
package ports

import (
	"context"
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/session"
)

// SessionRepository defines the persistence contract for session aggregates.
type SessionRepository interface {
	// Add persists a new session aggregate to storage.
	Add(ctx context.Context, aggregate *session.Session) error

	// Update persists changes to an existing session aggregate.
	Update(ctx context.Context, aggregate *session.Session) error

	// Get retrieves a session aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*session.Session, error)

	// GetActiveByLane retrieves the non-idle session currently occupying a
	// lane, if any. At most one session per lane is ever active.
	GetActiveByLane(ctx context.Context, restaurantID, laneID string) (*session.Session, error)

	// GetAllExpired retrieves every active session whose idle deadline lies
	// before now. Used by the idle sweep to release abandoned lanes.
	GetAllExpired(ctx context.Context, now time.Time) ([]*session.Session, error)
}
