package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
	"fieldroute-service/internal/services"
)

type ItineraryHandler struct {
	Itineraries ports.ItineraryRepository
	WorkOrders  ports.WorkOrderRepository
	Dist        domain.DistanceFunc
	Tolerance   time.Duration
	Now         func() time.Time
}

func (h *ItineraryHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *ItineraryHandler) tolerance() time.Duration {
	if h.Tolerance > 0 {
		return h.Tolerance
	}
	return domain.DefaultLateTolerance
}

func (h *ItineraryHandler) itineraryResponse(it *domain.Itinerary) dto.ItineraryResponse {
	stops := make([]dto.StopResponse, 0, len(it.Stops))
	for _, s := range it.Stops {
		stops = append(stops, dto.StopResponse{
			Position:  s.Position,
			Late:      s.Late,
			WorkOrder: workOrderResponse(s.WorkOrder),
		})
	}

	return dto.ItineraryResponse{
		ID:              it.ID.String(),
		InitialDate:     it.InitialDate,
		FinalDate:       it.FinalDate,
		Finished:        it.Finished,
		Progress:        it.Progress(),
		TotalDistanceKm: it.TotalDistance(h.Dist),
		Stops:           stops,
	}
}

// Build collects pending work orders in the date range into a new itinerary.
func (h *ItineraryHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req dto.BuildItineraryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.InitialDate.IsZero() || req.FinalDate.IsZero() {
		writeError(w, r, http.StatusBadRequest, "initial_date and final_date are required")
		return
	}

	it, err := services.BuildItinerary(r.Context(), services.BuildItineraryRequest{
		InitialDate: req.InitialDate,
		FinalDate:   req.FinalDate,
		Optimize:    req.Optimize,
	}, h.WorkOrders, h.Itineraries, h.Dist)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, h.itineraryResponse(it))
}

func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := h.Itineraries.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.itineraryResponse(it))
}

// AddStop appends a work order to an open itinerary at the next position.
func (h *ItineraryHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.AddStopRequest
	if !decodeBody(w, r, &req) {
		return
	}
	workOrderID, err := uuid.Parse(req.WorkOrderID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid work_order_id")
		return
	}

	it, err := h.Itineraries.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	wo, err := h.WorkOrders.Get(r.Context(), workOrderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := it.AddWorkOrder(wo); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Itineraries.Save(r.Context(), it); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.itineraryResponse(it))
}

func (h *ItineraryHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := services.OptimizeItinerary(r.Context(), id, h.Itineraries, h.Dist)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.itineraryResponse(it))
}

func (h *ItineraryHandler) MarkLate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := services.MarkLateStops(r.Context(), id, h.now(), h.tolerance(), h.Itineraries)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.itineraryResponse(it))
}

// Finish closes the route, settling every stop's terminal status.
func (h *ItineraryHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := services.CloseItinerary(r.Context(), id, h.now(), h.tolerance(), h.Itineraries, h.WorkOrders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.itineraryResponse(it))
}
