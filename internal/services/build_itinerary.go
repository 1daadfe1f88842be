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

type BuildItineraryRequest struct {
	InitialDate time.Time
	FinalDate   time.Time
	Optimize    bool
}

// BuildItinerary collects the pending work orders scheduled inside the date
// range into a new itinerary, optionally orders them into a travel-efficient
// sequence, and persists the result.
func BuildItinerary(
	ctx context.Context,
	req BuildItineraryRequest,
	workOrders ports.WorkOrderRepository,
	itineraries ports.ItineraryRepository,
	dist domain.DistanceFunc,
) (_ *domain.Itinerary, err error) {
	defer obs.Time(ctx, "services.BuildItinerary")(&err)

	it, err := domain.NewItinerary(uuid.New(), req.InitialDate, req.FinalDate)
	if err != nil {
		return nil, fmt.Errorf("build itinerary: %w", err)
	}

	// FinalDate is inclusive; the repository range end is exclusive.
	pending, err := workOrders.ListSchedulable(ctx, req.InitialDate, req.FinalDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("build itinerary: list schedulable work orders: %w", err)
	}

	for _, wo := range pending {
		if err := it.AddWorkOrder(wo); err != nil {
			return nil, fmt.Errorf("build itinerary: add work order %s: %w", wo.ID, err)
		}
	}

	if req.Optimize {
		if err := it.OptimizeRoute(dist); err != nil {
			return nil, fmt.Errorf("build itinerary: optimize route: %w", err)
		}
	}

	if err := itineraries.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("build itinerary: save: %w", err)
	}

	return it, nil
}

// OptimizeItinerary reorders an existing itinerary's stops and persists the
// new positions.
func OptimizeItinerary(
	ctx context.Context,
	itineraryID uuid.UUID,
	itineraries ports.ItineraryRepository,
	dist domain.DistanceFunc,
) (_ *domain.Itinerary, err error) {
	defer obs.Time(ctx, "services.OptimizeItinerary")(&err)

	it, err := itineraries.Get(ctx, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("optimize itinerary %s: %w", itineraryID, err)
	}

	if err := it.OptimizeRoute(dist); err != nil {
		return nil, fmt.Errorf("optimize itinerary %s: %w", itineraryID, err)
	}

	if err := itineraries.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("optimize itinerary %s: save: %w", itineraryID, err)
	}

	return it, nil
}
