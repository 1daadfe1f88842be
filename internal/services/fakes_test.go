package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// fakeWorkOrderRepo is an in-memory WorkOrderRepository for service tests.
type fakeWorkOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.WorkOrder
	fail   error
}

func newFakeWorkOrderRepo(orders ...*domain.WorkOrder) *fakeWorkOrderRepo {
	repo := &fakeWorkOrderRepo{orders: make(map[uuid.UUID]*domain.WorkOrder)}
	for _, wo := range orders {
		repo.orders[wo.ID] = wo
	}
	return repo
}

func (f *fakeWorkOrderRepo) Get(_ context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	wo, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("get work order %s: %w", id, domain.ErrWorkOrderNotFound)
	}
	return wo, nil
}

func (f *fakeWorkOrderRepo) ListSchedulable(_ context.Context, from, to time.Time) ([]*domain.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var out []*domain.WorkOrder
	for _, wo := range f.orders {
		if wo.Status != domain.StatusPending {
			continue
		}
		if wo.ScheduledAt.Before(from) || !wo.ScheduledAt.Before(to) {
			continue
		}
		out = append(out, wo)
	}
	return out, nil
}

func (f *fakeWorkOrderRepo) Save(_ context.Context, wo *domain.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.orders[wo.ID] = wo
	return nil
}

// fakeItineraryRepo is an in-memory ItineraryRepository for service tests.
type fakeItineraryRepo struct {
	mu          sync.Mutex
	itineraries map[uuid.UUID]*domain.Itinerary
	saves       int
}

func newFakeItineraryRepo(its ...*domain.Itinerary) *fakeItineraryRepo {
	repo := &fakeItineraryRepo{itineraries: make(map[uuid.UUID]*domain.Itinerary)}
	for _, it := range its {
		repo.itineraries[it.ID] = it
	}
	return repo
}

func (f *fakeItineraryRepo) Get(_ context.Context, id uuid.UUID) (*domain.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.itineraries[id]
	if !ok {
		return nil, fmt.Errorf("get itinerary %s: %w", id, domain.ErrItineraryNotFound)
	}
	return it, nil
}

func (f *fakeItineraryRepo) Save(_ context.Context, it *domain.Itinerary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itineraries[it.ID] = it
	f.saves++
	return nil
}
