package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
	"fieldroute-service/internal/ports"
)

// MarkLateStops recomputes the late flags of an open itinerary and persists
// them.
func MarkLateStops(
	ctx context.Context,
	itineraryID uuid.UUID,
	ref time.Time,
	tolerance time.Duration,
	itineraries ports.ItineraryRepository,
) (_ *domain.Itinerary, err error) {
	defer obs.Time(ctx, "services.MarkLateStops")(&err)

	it, err := itineraries.Get(ctx, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("mark late stops %s: %w", itineraryID, err)
	}

	if err := it.MarkLateOrders(ref, tolerance); err != nil {
		return nil, fmt.Errorf("mark late stops %s: %w", itineraryID, err)
	}

	if err := itineraries.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("mark late stops %s: save: %w", itineraryID, err)
	}

	return it, nil
}

// CloseItinerary finishes the route and persists the locked itinerary along
// with every work order whose status the close-out settled.
func CloseItinerary(
	ctx context.Context,
	itineraryID uuid.UUID,
	ref time.Time,
	tolerance time.Duration,
	itineraries ports.ItineraryRepository,
	workOrders ports.WorkOrderRepository,
) (_ *domain.Itinerary, err error) {
	defer obs.Time(ctx, "services.CloseItinerary")(&err)

	it, err := itineraries.Get(ctx, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("close itinerary %s: %w", itineraryID, err)
	}

	if err := it.Finish(ref, tolerance); err != nil {
		return nil, fmt.Errorf("close itinerary %s: %w", itineraryID, err)
	}

	for _, stop := range it.Stops {
		if err := workOrders.Save(ctx, stop.WorkOrder); err != nil {
			return nil, fmt.Errorf("close itinerary %s: save work order %s: %w",
				itineraryID, stop.WorkOrder.ID, err)
		}
	}

	if err := itineraries.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("close itinerary %s: save: %w", itineraryID, err)
	}

	return it, nil
}
