package ports

import (
	"context"

	"fieldroute-service/internal/domain"
)

// Contract for resolving travel distance in kilometers between two resolved
// coordinates. Implementations may call external services and fail.
type DistanceProvider interface {
	GetDistance(ctx context.Context, a, b domain.Coordinates) (float64, error)
}
