package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateRange is returned when an itinerary's final date falls
	// before its initial date.
	ErrInvalidDateRange = errors.New("itinerary: final date before initial date")

	// ErrAlreadyFinished is returned by any mutation on a finished itinerary.
	ErrAlreadyFinished = errors.New("itinerary: already finished")

	// ErrPaymentNotSettled is returned when finalizing a work order whose
	// settlement is missing or unpaid.
	ErrPaymentNotSettled = errors.New("work order: payment not settled")

	// ErrResultItemNotFound is returned when removing a quantity from a
	// result category with no matching line item.
	ErrResultItemNotFound = errors.New("work order result: line item not found")

	// ErrNoResult is returned when an operation needs a recorded outcome and
	// the work order has none.
	ErrNoResult = errors.New("work order: no result recorded")

	ErrWorkOrderNotFound = errors.New("work order not found")
	ErrItineraryNotFound = errors.New("itinerary not found")
	ErrCustomerNotFound  = errors.New("customer not found")
)

// InvalidTransitionError marks a status change the transition table forbids.
type InvalidTransitionError struct {
	From WorkOrderStatus
	To   WorkOrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("work order: invalid transition %s -> %s", e.From, e.To)
}
