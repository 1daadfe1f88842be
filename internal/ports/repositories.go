package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// Port: a boundary for loading and persisting work orders.
type WorkOrderRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error)
	// ListSchedulable returns PENDING work orders scheduled in [from, to).
	ListSchedulable(ctx context.Context, from, to time.Time) ([]*domain.WorkOrder, error)
	Save(ctx context.Context, wo *domain.WorkOrder) error
}

// Port: a boundary for loading and persisting itineraries with their stops.
// Get rehydrates each stop's work order.
type ItineraryRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Itinerary, error)
	Save(ctx context.Context, it *domain.Itinerary) error
}

// Port: a boundary for customer lookups.
type CustomerRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context) ([]*domain.Customer, error)
}
