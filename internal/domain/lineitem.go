package domain

import "github.com/google/uuid"

// LineItem is one requested product line on a work order. UnitPrice is a
// snapshot of the product price when the work order was created, so later
// price changes never affect an open visit.
type LineItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice float64
	Quantity  int
}
