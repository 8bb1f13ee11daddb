package ports

import (
	"context"

	"drivethru/internal/core/domain/services"
)

// MenuCatalog provides point-in-time menu snapshots per restaurant. A
// snapshot stays consistent for the duration of one turn; implementations
// may serve a cached copy when the upstream menu service is unreachable.
type MenuCatalog interface {
	// Snapshot returns the current menu view for a restaurant.
	Snapshot(ctx context.Context, restaurantID string) (services.Catalog, error)
}
