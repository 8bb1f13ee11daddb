// Package sessionrepo provides data transfer objects and mapping functions
// for session persistence. It converts between the session domain aggregate
// and its relational representation.
package sessionrepo

import (
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/session"

	"github.com/google/uuid"
)

// SessionDTO represents the database structure for persisting session
// aggregates. A lane holds at most one active session, so lookups by
// restaurant and lane are indexed together with the state.
type SessionDTO struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RestaurantID       string     `gorm:"index:idx_sessions_lane"`
	LaneID             string     `gorm:"index:idx_sessions_lane"`
	OrderID            uuid.UUID  `gorm:"type:uuid;index"`
	State              int        `gorm:"index"`
	TurnCounter        int
	Referent           *uuid.UUID `gorm:"type:uuid"`
	ClarifyAttempts    int
	CreatedAt          time.Time
	LastActivityAt     time.Time
	IdleDeadline       time.Time `gorm:"index"`
	IdleTimeoutSeconds int64
}

// TableName specifies the database table name for session entities.
func (SessionDTO) TableName() string {
	return "sessions"
}

// fromDomain converts a session domain aggregate to its database
// representation.
func fromDomain(sess *session.Session) SessionDTO {
	var referent *uuid.UUID
	if ref := sess.Referent(); ref != nil {
		raw := ref.Bytes()
		referent = &raw
	}

	return SessionDTO{
		ID:                 sess.ID().Bytes(),
		RestaurantID:       sess.RestaurantID(),
		LaneID:             sess.LaneID(),
		OrderID:            sess.OrderID().Bytes(),
		State:              int(sess.State()),
		TurnCounter:        sess.TurnCounter(),
		Referent:           referent,
		ClarifyAttempts:    sess.ClarifyAttempts(),
		CreatedAt:          sess.CreatedAt(),
		LastActivityAt:     sess.LastActivityAt(),
		IdleDeadline:       sess.IdleDeadline(),
		IdleTimeoutSeconds: int64(sess.IdleTimeout() / time.Second),
	}
}

// toDomain converts a database DTO to a session domain aggregate using
// RestoreSession.
func toDomain(dto SessionDTO) (*session.Session, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	var referent *kernel.UUID
	if dto.Referent != nil {
		ref, refErr := kernel.UUIDFromBytes((*dto.Referent)[:])
		if refErr != nil {
			return nil, refErr
		}
		referent = &ref
	}

	return session.RestoreSession(
		id,
		dto.RestaurantID,
		dto.LaneID,
		orderID,
		session.State(dto.State),
		dto.TurnCounter,
		referent,
		dto.ClarifyAttempts,
		dto.CreatedAt,
		dto.LastActivityAt,
		time.Duration(dto.IdleTimeoutSeconds)*time.Second,
	)
}
