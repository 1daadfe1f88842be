package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Str("method", r.Method).Str("path", r.URL.Path).Err(err).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeBody parses a single JSON object into v, rejecting unknown fields
// and trailing content.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeDomainError maps engine failures onto HTTP statuses. Unknown errors
// are logged and hidden behind a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var transition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrWorkOrderNotFound),
		errors.Is(err, domain.ErrItineraryNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrResultItemNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyFinished),
		errors.Is(err, domain.ErrPaymentNotSettled),
		errors.Is(err, domain.ErrNoResult):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &transition):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		log.Error().Str("method", r.Method).Str("path", r.URL.Path).Err(err).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func workOrderResponse(wo *domain.WorkOrder) dto.WorkOrderResponse {
	items := make([]dto.LineItemResponse, 0, len(wo.Items))
	for _, it := range wo.Items {
		items = append(items, dto.LineItemResponse{
			ProductID: it.ProductID.String(),
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	res := dto.WorkOrderResponse{
		ID:          wo.ID.String(),
		CustomerID:  wo.CustomerID.String(),
		Status:      string(wo.Status),
		ScheduledAt: wo.ScheduledAt,
		VisitedAt:   wo.VisitedAt,
		Notes:       wo.Notes,
		Items:       items,
		CreatedAt:   wo.CreatedAt,
		UpdatedAt:   wo.UpdatedAt,
	}

	if wo.Result != nil {
		result := &dto.ResultResponse{TotalValue: wo.Result.TotalValue}
		for _, bucket := range [][]domain.ResultItem{wo.Result.Exchanged, wo.Result.Added, wo.Result.Removed} {
			for _, it := range bucket {
				result.Items = append(result.Items, dto.ResultItemResponse{
					Kind:      string(it.Kind),
					ProductID: it.ProductID.String(),
					Name:      it.Name,
					UnitPrice: it.UnitPrice,
					Quantity:  it.Quantity,
				})
			}
		}
		res.Result = result
	}

	if wo.Payment != nil {
		res.Payment = &dto.PaymentResponse{
			ID:           wo.Payment.ID.String(),
			TotalValue:   wo.Payment.TotalValue,
			Installments: wo.Payment.Installments,
			Paid:         wo.Payment.Paid,
		}
	}

	return res
}
