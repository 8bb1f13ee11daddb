package sessionrepo

import (
	"context"
	"errors"
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormSessionRepository implements SessionRepository using GORM.
type GormSessionRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormSessionRepository creates a new GORM session repository.
func NewGormSessionRepository(db *gorm.DB, tracker aggregateTracker) *GormSessionRepository {
	return &GormSessionRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new session to the database.
func (r *GormSessionRepository) Add(ctx context.Context, aggregate *session.Session) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing session to the database.
func (r *GormSessionRepository) Update(ctx context.Context, aggregate *session.Session) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	// Select all fields: Updates alone skips zero values, and a session
	// returning to Idle or dropping its referent writes exactly those.
	result := r.db.WithContext(ctx).
		Model(&SessionDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a session by ID.
func (r *GormSessionRepository) Get(ctx context.Context, id kernel.UUID) (*session.Session, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto SessionDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("session", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetActiveByLane retrieves the non-idle session occupying a lane, or nil
// when the lane is free.
func (r *GormSessionRepository) GetActiveByLane(
	ctx context.Context,
	restaurantID, laneID string,
) (*session.Session, error) {
	var dto SessionDTO
	err := r.db.WithContext(ctx).
		First(&dto, "restaurant_id = ? AND lane_id = ? AND state != ?",
			restaurantID, laneID, int(session.Idle)).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllExpired retrieves every active session whose idle deadline has
// passed.
func (r *GormSessionRepository) GetAllExpired(
	ctx context.Context,
	now time.Time,
) ([]*session.Session, error) {
	var dtos []SessionDTO
	err := r.db.WithContext(ctx).
		Find(&dtos, "state != ? AND idle_deadline < ?", int(session.Idle), now).
		Error
	if err != nil {
		return nil, err
	}

	sessions := make([]*session.Session, 0, len(dtos))
	for _, dto := range dtos {
		sess, mapErr := toDomain(dto)
		if mapErr != nil {
			return nil, mapErr
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}
