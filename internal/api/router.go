package api

import (
	"net/http"
	"time"

	"fieldroute-service/internal/api/handlers"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(
	workOrders ports.WorkOrderRepository,
	itineraries ports.ItineraryRepository,
	customers ports.CustomerRepository,
	dist domain.DistanceFunc,
	tolerance time.Duration,
) http.Handler {
	mux := http.NewServeMux()

	customerHandler := &handlers.CustomerHandler{Customers: customers}
	woHandler := &handlers.WorkOrderHandler{
		WorkOrders: workOrders,
		Customers:  customers,
	}
	itHandler := &handlers.ItineraryHandler{
		Itineraries: itineraries,
		WorkOrders:  workOrders,
		Dist:        dist,
		Tolerance:   tolerance,
	}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /customers", customerHandler.List)

	mux.HandleFunc("GET /workorders", woHandler.List)
	mux.HandleFunc("POST /workorders", woHandler.Create)
	mux.HandleFunc("GET /workorders/{id}", woHandler.Get)
	mux.HandleFunc("POST /workorders/{id}/start-visit", woHandler.StartVisit)
	mux.HandleFunc("POST /workorders/{id}/result", woHandler.RecordResult)
	mux.HandleFunc("POST /workorders/{id}/finalize-payment", woHandler.FinalizePayment)
	mux.HandleFunc("POST /workorders/{id}/follow-up", woHandler.FollowUp)

	mux.HandleFunc("POST /itineraries", itHandler.Build)
	mux.HandleFunc("GET /itineraries/{id}", itHandler.Get)
	mux.HandleFunc("POST /itineraries/{id}/stops", itHandler.AddStop)
	mux.HandleFunc("POST /itineraries/{id}/optimize", itHandler.Optimize)
	mux.HandleFunc("POST /itineraries/{id}/mark-late", itHandler.MarkLate)
	mux.HandleFunc("POST /itineraries/{id}/finish", itHandler.Finish)

	return loggingMiddleware(mux)
}
