package distance

import (
	"context"

	"fieldroute-service/internal/domain"
)

// HaversineProvider resolves great-circle distance locally. It never fails
// and is the default provider when no road-distance service is configured.
type HaversineProvider struct{}

func NewHaversineProvider() HaversineProvider { return HaversineProvider{} }

func (HaversineProvider) GetDistance(_ context.Context, a, b domain.Coordinates) (float64, error) {
	return domain.Haversine(a, b), nil
}
