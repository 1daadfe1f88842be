package domain

import "math"

// Immutable geographic coordinates (latitude, longitude).
// Address resolution happens upstream; the engine only ever sees
// already-geocoded points.
type Coordinates struct {
	Lat float64
	Lon float64
}

// DistanceFunc computes a scalar distance in kilometers between two
// coordinates. Any symmetric metric works; Haversine is the default.
type DistanceFunc func(a, b Coordinates) float64

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in
// kilometers. Symmetric in its arguments.
func Haversine(a, b Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
