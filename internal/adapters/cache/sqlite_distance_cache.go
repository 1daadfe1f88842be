package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// SqliteDistanceCache persists resolved distances keyed by an unordered
// coordinate pair, so a remote provider is consulted at most once per pair
// across process restarts.
type SqliteDistanceCache struct {
	DB *sql.DB
}

func NewSqliteDistanceCache(db *sql.DB) *SqliteDistanceCache {
	return &SqliteDistanceCache{DB: db}
}

// pairCacheKey renders the unordered coordinate pair as a stable text key.
// The lexically smaller endpoint always comes first so both orientations of
// a pair share one row.
func pairCacheKey(a, b domain.Coordinates) string {
	ka := fmt.Sprintf("%.6f,%.6f", a.Lat, a.Lon)
	kb := fmt.Sprintf("%.6f,%.6f", b.Lat, b.Lon)
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

func (c *SqliteDistanceCache) Get(ctx context.Context, key string) (float64, bool, error) {
	if c.DB == nil {
		return 0, false, errors.New("distance cache: db is nil")
	}

	var km float64
	err := c.DB.QueryRowContext(ctx,
		`SELECT distance_km FROM distance_cache WHERE pair_key = $1;`, key,
	).Scan(&km)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get distance cache: query: %w", err)
	}

	return km, true, nil
}

func (c *SqliteDistanceCache) Put(ctx context.Context, key string, km float64) error {
	if c.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	_, err := c.DB.ExecContext(ctx, `
	INSERT INTO distance_cache (pair_key, distance_km)
	VALUES ($1, $2)
	ON CONFLICT (pair_key) DO UPDATE SET distance_km = EXCLUDED.distance_km;
	`, key, km)
	if err != nil {
		return fmt.Errorf("insert distance cache key=%q: %w", key, err)
	}

	return nil
}

// CachedDistanceProvider wraps a provider with the persistent pair cache.
// Cache write failures are surfaced; the optimizer's own in-memory memo sits
// above this layer, so the persistent tier only matters across itineraries.
type CachedDistanceProvider struct {
	Cache *SqliteDistanceCache
	Next  ports.DistanceProvider
}

func NewCachedDistanceProvider(cache *SqliteDistanceCache, next ports.DistanceProvider) *CachedDistanceProvider {
	return &CachedDistanceProvider{Cache: cache, Next: next}
}

func (p *CachedDistanceProvider) GetDistance(ctx context.Context, a, b domain.Coordinates) (_ float64, err error) {
	defer obs.Time(ctx, "distance.cache.GetDistance")(&err)

	key := pairCacheKey(a, b)

	if km, ok, err := p.Cache.Get(ctx, key); err != nil {
		return 0, err
	} else if ok {
		return km, nil
	}

	km, err := p.Next.GetDistance(ctx, a, b)
	if err != nil {
		return 0, fmt.Errorf("cached distance: resolve %q: %w", key, err)
	}

	if err := p.Cache.Put(ctx, key, km); err != nil {
		return 0, err
	}

	return km, nil
}
