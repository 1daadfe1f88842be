package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkOrder is one scheduled customer visit: the requested items, the
// lifecycle status, and optionally the recorded outcome and its settlement.
//
// Every status write goes through one of two doors: transition, validated
// against the table in status.go, or override, the privileged path used by
// the three operations whose edges are intentionally outside the table
// (StartVisit, FinalizeAfterPayment, and the forced failure an itinerary
// applies to unvisited late stops when it closes). Nothing assigns Status
// directly.
type WorkOrder struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Location    Coordinates
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ScheduledAt time.Time
	VisitedAt   *time.Time
	Notes       string
	Items       []LineItem
	Status      WorkOrderStatus
	Result      *WorkOrderResult
	Payment     *PaymentOrder
}

func NewWorkOrder(id, customerID uuid.UUID, location Coordinates, scheduledAt time.Time, notes string, items []LineItem, now time.Time) *WorkOrder {
	return &WorkOrder{
		ID:          id,
		CustomerID:  customerID,
		Location:    location,
		CreatedAt:   now,
		UpdatedAt:   now,
		ScheduledAt: scheduledAt,
		Notes:       notes,
		Items:       items,
		Status:      StatusPending,
	}
}

func (w *WorkOrder) transition(target WorkOrderStatus, at time.Time) error {
	if !CanTransition(w.Status, target) {
		return &InvalidTransitionError{From: w.Status, To: target}
	}
	w.Status = target
	w.UpdatedAt = at
	return nil
}

// override bypasses the transition table. Keep call sites to the privileged
// operations documented on the type.
func (w *WorkOrder) override(target WorkOrderStatus, at time.Time) {
	w.Status = target
	w.UpdatedAt = at
}

// SetStatus moves the work order to target when the transition table allows
// it and stamps UpdatedAt. Any other pair fails with InvalidTransitionError.
func (w *WorkOrder) SetStatus(target WorkOrderStatus, at time.Time) error {
	return w.transition(target, at)
}

// StartVisit records the agent's arrival: requires PENDING, moves straight to
// IN_PROGRESS and stamps the visit timestamp. VisitedAt is set exactly once
// and never cleared.
func (w *WorkOrder) StartVisit(at time.Time) error {
	if w.Status != StatusPending {
		return &InvalidTransitionError{From: w.Status, To: StatusInProgress}
	}
	visited := at
	w.VisitedAt = &visited
	w.override(StatusInProgress, at)
	return nil
}

// StatusFromResult derives the terminal status a visit outcome implies,
// without applying it: nothing delivered fails the visit, anything removed or
// under-delivered makes it partial, a full delivery completes it.
func (w *WorkOrder) StatusFromResult(r *WorkOrderResult) WorkOrderStatus {
	exchanged := len(r.Exchanged)
	added := len(r.Added)
	removed := len(r.Removed)

	switch {
	case exchanged == 0 && added == 0:
		return StatusFailed
	case removed > 0 || exchanged < len(w.Items):
		return StatusPartial
	default:
		return StatusCompleted
	}
}

// ApplyResult attaches the outcome and sets the derived terminal status
// through the validated transition path. State is untouched on failure.
func (w *WorkOrder) ApplyResult(r *WorkOrderResult, at time.Time) (WorkOrderStatus, error) {
	target := w.StatusFromResult(r)
	if err := w.transition(target, at); err != nil {
		return w.Status, err
	}
	w.Result = r
	return target, nil
}

// SyncPaymentWithResult overwrites the settlement's total with the recorded
// outcome's total. No-op unless both are present.
func (w *WorkOrder) SyncPaymentWithResult() {
	if w.Result == nil || w.Payment == nil {
		return
	}
	w.Payment.TotalValue = w.Result.TotalValue
}

// FinalizeAfterPayment closes out the work order once its settlement is paid.
// Privileged: a PARTIAL order whose settlement cleared in full still ends
// COMPLETED, which the transition table alone would forbid.
func (w *WorkOrder) FinalizeAfterPayment(at time.Time) error {
	if w.Payment == nil || !w.Payment.Paid {
		return ErrPaymentNotSettled
	}
	w.override(StatusCompleted, at)
	return nil
}

// NextFromResult creates a follow-up visit for the same customer: what the
// source visit actually delivered (exchanged plus added) becomes the new
// request. Requires a COMPLETED or PARTIAL source with a recorded outcome.
// The optional settlement is attached fresh and unpaid. Notes carry over.
func (w *WorkOrder) NextFromResult(id uuid.UUID, scheduledAt time.Time, payment *PaymentOrder, now time.Time) (*WorkOrder, error) {
	if w.Status != StatusCompleted && w.Status != StatusPartial {
		return nil, fmt.Errorf("next from result: work order %s is %s, want %s or %s",
			w.ID, w.Status, StatusCompleted, StatusPartial)
	}
	if w.Result == nil {
		return nil, fmt.Errorf("next from result: work order %s: %w", w.ID, ErrNoResult)
	}

	delivered := w.Result.ExchangedAndAdded()
	items := make([]LineItem, 0, len(delivered))
	for _, it := range delivered {
		items = append(items, LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	next := NewWorkOrder(id, w.CustomerID, w.Location, scheduledAt, w.Notes, items, now)
	if payment != nil {
		payment.Paid = false
		next.Payment = payment
	}
	return next, nil
}

// IsLate reports whether the tolerance window after the scheduled time has
// elapsed without a visit. A visited work order is never late.
func (w *WorkOrder) IsLate(ref time.Time, tolerance time.Duration) bool {
	if w.VisitedAt != nil {
		return false
	}
	return !w.ScheduledAt.Add(tolerance).After(ref)
}
