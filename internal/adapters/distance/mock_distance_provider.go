package distance

import (
	"context"
	"fmt"

	"fieldroute-service/internal/domain"
)

type MockPair struct {
	From, To domain.Coordinates
	Km       float64
}

// MockDistanceProvider serves fixed distances for known coordinate pairs.
// Both orientations of a pair resolve to the same value.
type MockDistanceProvider struct {
	m map[[4]float64]float64
}

func pairIndex(a, b domain.Coordinates) [4]float64 {
	return [4]float64{a.Lat, a.Lon, b.Lat, b.Lon}
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[[4]float64]float64, 2*len(pairs))
	for _, p := range pairs {
		m[pairIndex(p.From, p.To)] = p.Km
		m[pairIndex(p.To, p.From)] = p.Km
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(_ context.Context, a, b domain.Coordinates) (float64, error) {
	km, ok := p.m[pairIndex(a, b)]
	if !ok {
		return 0, fmt.Errorf("missing pair %v -> %v", a, b)
	}

	return km, nil
}
