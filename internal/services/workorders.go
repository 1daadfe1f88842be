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

// ResultLine is one outcome line reported by the agent after a visit.
type ResultLine struct {
	Kind      domain.ResultItemKind
	ProductID uuid.UUID
	Name      string
	UnitPrice float64
	Quantity  int
}

// StartVisit stamps the agent's arrival on a pending work order.
func StartVisit(
	ctx context.Context,
	workOrderID uuid.UUID,
	at time.Time,
	workOrders ports.WorkOrderRepository,
) (_ *domain.WorkOrder, err error) {
	defer obs.Time(ctx, "services.StartVisit")(&err)

	wo, err := workOrders.Get(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("start visit %s: %w", workOrderID, err)
	}

	if err := wo.StartVisit(at); err != nil {
		return nil, fmt.Errorf("start visit %s: %w", workOrderID, err)
	}

	if err := workOrders.Save(ctx, wo); err != nil {
		return nil, fmt.Errorf("start visit %s: save: %w", workOrderID, err)
	}

	return wo, nil
}

// RecordVisitResult builds the visit outcome from the reported lines, applies
// it to the work order (starting the visit first when still pending), syncs
// the settlement total, and persists.
func RecordVisitResult(
	ctx context.Context,
	workOrderID uuid.UUID,
	lines []ResultLine,
	at time.Time,
	workOrders ports.WorkOrderRepository,
) (_ *domain.WorkOrder, err error) {
	defer obs.Time(ctx, "services.RecordVisitResult")(&err)

	wo, err := workOrders.Get(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("record visit result %s: %w", workOrderID, err)
	}

	if wo.Status == domain.StatusPending {
		if err := wo.StartVisit(at); err != nil {
			return nil, fmt.Errorf("record visit result %s: %w", workOrderID, err)
		}
	}

	result := domain.NewWorkOrderResult()
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("record visit result %s: line %d: quantity must be positive", workOrderID, i+1)
		}
		if err := result.AddItem(line.Kind, line.ProductID, line.Name, line.UnitPrice, line.Quantity); err != nil {
			return nil, fmt.Errorf("record visit result %s: line %d: %w", workOrderID, i+1, err)
		}
	}

	if _, err := wo.ApplyResult(result, at); err != nil {
		return nil, fmt.Errorf("record visit result %s: %w", workOrderID, err)
	}
	wo.SyncPaymentWithResult()

	if err := workOrders.Save(ctx, wo); err != nil {
		return nil, fmt.Errorf("record visit result %s: save: %w", workOrderID, err)
	}

	return wo, nil
}

// FinalizePayment closes out a work order whose settlement has been paid.
func FinalizePayment(
	ctx context.Context,
	workOrderID uuid.UUID,
	at time.Time,
	workOrders ports.WorkOrderRepository,
) (_ *domain.WorkOrder, err error) {
	defer obs.Time(ctx, "services.FinalizePayment")(&err)

	wo, err := workOrders.Get(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("finalize payment %s: %w", workOrderID, err)
	}

	if err := wo.FinalizeAfterPayment(at); err != nil {
		return nil, fmt.Errorf("finalize payment %s: %w", workOrderID, err)
	}

	if err := workOrders.Save(ctx, wo); err != nil {
		return nil, fmt.Errorf("finalize payment %s: save: %w", workOrderID, err)
	}

	return wo, nil
}

// FollowUpRequest describes the follow-up visit derived from a delivered
// outcome. Installments is ignored unless WithSettlement is set.
type FollowUpRequest struct {
	SourceID       uuid.UUID
	ScheduledAt    time.Time
	WithSettlement bool
	Installments   int
}

// FollowUpWorkOrder creates and persists the next visit for a completed or
// partial work order: what was actually delivered becomes the new request.
func FollowUpWorkOrder(
	ctx context.Context,
	req FollowUpRequest,
	at time.Time,
	workOrders ports.WorkOrderRepository,
) (_ *domain.WorkOrder, err error) {
	defer obs.Time(ctx, "services.FollowUpWorkOrder")(&err)

	source, err := workOrders.Get(ctx, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("follow up %s: %w", req.SourceID, err)
	}

	var payment *domain.PaymentOrder
	if req.WithSettlement {
		payment = domain.NewPaymentOrder(uuid.New(), 0, req.Installments, at)
	}

	next, err := source.NextFromResult(uuid.New(), req.ScheduledAt, payment, at)
	if err != nil {
		return nil, fmt.Errorf("follow up %s: %w", req.SourceID, err)
	}

	if err := workOrders.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("follow up %s: save: %w", req.SourceID, err)
	}

	return next, nil
}
