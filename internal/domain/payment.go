package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentOrder is the settlement record attached to a work order. The engine
// only reads and writes TotalValue and Paid; installment scheduling and
// collection belong to the billing layer.
type PaymentOrder struct {
	ID           uuid.UUID
	TotalValue   float64
	Installments int
	Paid         bool
	CreatedAt    time.Time
}

func NewPaymentOrder(id uuid.UUID, totalValue float64, installments int, now time.Time) *PaymentOrder {
	if installments < 1 {
		installments = 1
	}
	return &PaymentOrder{
		ID:           id,
		TotalValue:   totalValue,
		Installments: installments,
		CreatedAt:    now,
	}
}
