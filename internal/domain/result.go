package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ResultItemKind classifies how a product figured in a visit's outcome.
type ResultItemKind string

const (
	// ResultExchanged marks a requested item that was actually fulfilled.
	ResultExchanged ResultItemKind = "EXCHANGED"
	// ResultAdded marks an extra item delivered beyond the request.
	ResultAdded ResultItemKind = "ADDED"
	// ResultRemoved marks a requested item explicitly not fulfilled.
	ResultRemoved ResultItemKind = "REMOVED"
)

// ResultItem is one product line in a visit outcome. UnitPrice snapshots the
// product price at visit time.
type ResultItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice float64
	Quantity  int
	Kind      ResultItemKind
}

// WorkOrderResult aggregates the outcome of an executed visit. TotalValue is
// derived and kept consistent by every mutation: it sums price x quantity
// over the EXCHANGED and ADDED categories only. REMOVED items never
// contribute to the total.
type WorkOrderResult struct {
	Exchanged  []ResultItem
	Added      []ResultItem
	Removed    []ResultItem
	TotalValue float64
}

func NewWorkOrderResult() *WorkOrderResult {
	return &WorkOrderResult{}
}

func (r *WorkOrderResult) bucket(kind ResultItemKind) (*[]ResultItem, error) {
	switch kind {
	case ResultExchanged:
		return &r.Exchanged, nil
	case ResultAdded:
		return &r.Added, nil
	case ResultRemoved:
		return &r.Removed, nil
	}
	return nil, fmt.Errorf("work order result: unknown item kind %q", kind)
}

// AddItem records quantity of a product under the given category, merging
// into an existing line for the same product when present.
func (r *WorkOrderResult) AddItem(kind ResultItemKind, productID uuid.UUID, name string, unitPrice float64, quantity int) error {
	items, err := r.bucket(kind)
	if err != nil {
		return err
	}

	merged := false
	for i := range *items {
		if (*items)[i].ProductID == productID {
			(*items)[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		*items = append(*items, ResultItem{
			ProductID: productID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
			Kind:      kind,
		})
	}

	r.recompute()
	return nil
}

// RemoveItem decrements the matching line item's quantity; when the quantity
// reaches zero or below the line is dropped from the category.
func (r *WorkOrderResult) RemoveItem(kind ResultItemKind, productID uuid.UUID, quantity int) error {
	items, err := r.bucket(kind)
	if err != nil {
		return err
	}

	for i := range *items {
		if (*items)[i].ProductID != productID {
			continue
		}

		(*items)[i].Quantity -= quantity
		if (*items)[i].Quantity <= 0 {
			*items = append((*items)[:i], (*items)[i+1:]...)
		}

		r.recompute()
		return nil
	}

	return fmt.Errorf("remove %s item %s: %w", kind, productID, ErrResultItemNotFound)
}

// ExchangedAndAdded returns the concatenation of the EXCHANGED and ADDED
// categories, the items a follow-up work order is built from.
func (r *WorkOrderResult) ExchangedAndAdded() []ResultItem {
	out := make([]ResultItem, 0, len(r.Exchanged)+len(r.Added))
	out = append(out, r.Exchanged...)
	out = append(out, r.Added...)
	return out
}

func (r *WorkOrderResult) recompute() {
	total := 0.0
	for _, it := range r.Exchanged {
		total += it.UnitPrice * float64(it.Quantity)
	}
	for _, it := range r.Added {
		total += it.UnitPrice * float64(it.Quantity)
	}
	r.TotalValue = total
}
