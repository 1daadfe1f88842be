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

type WorkOrderHandler struct {
	WorkOrders ports.WorkOrderRepository
	Customers  ports.CustomerRepository
	Now        func() time.Time
}

func (h *WorkOrderHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// Create registers a new pending work order for a customer, snapshotting the
// requested line items and optionally opening an unpaid settlement.
func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWorkOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid customer_id")
		return
	}
	if req.ScheduledAt.IsZero() {
		writeError(w, r, http.StatusBadRequest, "scheduled_at is required")
		return
	}

	customer, err := h.Customers.Get(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid product_id")
			return
		}
		if it.Quantity < 1 {
			writeError(w, r, http.StatusBadRequest, "quantity must be positive")
			return
		}
		items = append(items, domain.LineItem{
			ProductID: productID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	now := h.now()
	wo := domain.NewWorkOrder(uuid.New(), customer.ID, customer.Location, req.ScheduledAt, req.Notes, items, now)
	if req.WithSettlement {
		wo.Payment = domain.NewPaymentOrder(uuid.New(), 0, req.Installments, now)
	}

	if err := h.WorkOrders.Save(r.Context(), wo); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, workOrderResponse(wo))
}

// List returns the PENDING work orders scheduled inside [from, to), the
// candidates for a new itinerary.
func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
		return
	}

	orders, err := h.WorkOrders.ListSchedulable(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListWorkOrderResponse{WorkOrders: make([]dto.WorkOrderResponse, 0, len(orders))}
	for _, wo := range orders {
		res.WorkOrders = append(res.WorkOrders, workOrderResponse(wo))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	wo, err := h.WorkOrders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, workOrderResponse(wo))
}

func (h *WorkOrderHandler) StartVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	wo, err := services.StartVisit(r.Context(), id, h.now(), h.WorkOrders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, workOrderResponse(wo))
}

// RecordResult applies the reported visit outcome, deriving the terminal
// status and syncing the settlement total.
func (h *WorkOrderHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.RecordResultRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]services.ResultLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid product_id")
			return
		}
		lines = append(lines, services.ResultLine{
			Kind:      domain.ResultItemKind(line.Kind),
			ProductID: productID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	wo, err := services.RecordVisitResult(r.Context(), id, lines, h.now(), h.WorkOrders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, workOrderResponse(wo))
}

func (h *WorkOrderHandler) FinalizePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	wo, err := services.FinalizePayment(r.Context(), id, h.now(), h.WorkOrders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, workOrderResponse(wo))
}

// FollowUp derives the next visit from a delivered outcome.
func (h *WorkOrderHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.FollowUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ScheduledAt.IsZero() {
		writeError(w, r, http.StatusBadRequest, "scheduled_at is required")
		return
	}

	next, err := services.FollowUpWorkOrder(r.Context(), services.FollowUpRequest{
		SourceID:       id,
		ScheduledAt:    req.ScheduledAt,
		WithSettlement: req.WithSettlement,
		Installments:   req.Installments,
	}, h.now(), h.WorkOrders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, workOrderResponse(next))
}

type CustomerHandler struct {
	Customers ports.CustomerRepository
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Customers.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListCustomerResponse{Customers: make([]dto.CustomerResponse, 0, len(customers))}
	for _, c := range customers {
		res.Customers = append(res.Customers, dto.CustomerResponse{
			ID:      c.ID.String(),
			Name:    c.Name,
			Address: c.Address,
			Lat:     c.Location.Lat,
			Lon:     c.Location.Lon,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
