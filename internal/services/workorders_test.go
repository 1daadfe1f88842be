package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldroute-service/internal/domain"
)

var baseTime = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func pendingWorkOrder(scheduledAt time.Time, requested int) *domain.WorkOrder {
	items := make([]domain.LineItem, 0, requested)
	for i := 0; i < requested; i++ {
		items = append(items, domain.LineItem{ProductID: uuid.New(), Name: "product", UnitPrice: 10, Quantity: 1})
	}
	return domain.NewWorkOrder(uuid.New(), uuid.New(), domain.Coordinates{Lat: -23.5, Lon: -46.6},
		scheduledAt, "", items, baseTime)
}

func TestStartVisitService(t *testing.T) {
	wo := pendingWorkOrder(baseTime, 1)
	repo := newFakeWorkOrderRepo(wo)

	got, err := StartVisit(context.Background(), wo.ID, baseTime.Add(time.Hour), repo)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, got.Status)
	require.NotNil(t, got.VisitedAt)
	assert.True(t, got.VisitedAt.Equal(baseTime.Add(time.Hour)))

	_, err = StartVisit(context.Background(), uuid.New(), baseTime, repo)
	assert.ErrorIs(t, err, domain.ErrWorkOrderNotFound)
}

func TestRecordVisitResult(t *testing.T) {
	wo := pendingWorkOrder(baseTime, 2)
	wo.Payment = domain.NewPaymentOrder(uuid.New(), 0, 1, baseTime)
	repo := newFakeWorkOrderRepo(wo)

	lines := []ResultLine{
		{Kind: domain.ResultExchanged, ProductID: wo.Items[0].ProductID, Name: "product", UnitPrice: 10, Quantity: 1},
		{Kind: domain.ResultRemoved, ProductID: wo.Items[1].ProductID, Name: "product", UnitPrice: 10, Quantity: 1},
	}

	got, err := RecordVisitResult(context.Background(), wo.ID, lines, baseTime.Add(time.Hour), repo)
	require.NoError(t, err)

	// Pending order gets its visit started implicitly.
	require.NotNil(t, got.VisitedAt)
	assert.Equal(t, domain.StatusPartial, got.Status)
	require.NotNil(t, got.Result)
	assert.InDelta(t, 10.0, got.Result.TotalValue, 1e-9)

	// Settlement total follows the outcome.
	assert.InDelta(t, 10.0, got.Payment.TotalValue, 1e-9)
}

func TestRecordVisitResultRejectsBadLines(t *testing.T) {
	wo := pendingWorkOrder(baseTime, 1)
	repo := newFakeWorkOrderRepo(wo)

	_, err := RecordVisitResult(context.Background(), wo.ID, []ResultLine{
		{Kind: domain.ResultExchanged, ProductID: uuid.New(), Name: "p", UnitPrice: 1, Quantity: 0},
	}, baseTime, repo)
	require.Error(t, err)

	_, err = RecordVisitResult(context.Background(), wo.ID, []ResultLine{
		{Kind: domain.ResultItemKind("GIFTED"), ProductID: uuid.New(), Name: "p", UnitPrice: 1, Quantity: 1},
	}, baseTime, repo)
	require.Error(t, err)
}

func TestFinalizePaymentService(t *testing.T) {
	wo := pendingWorkOrder(baseTime, 1)
	repo := newFakeWorkOrderRepo(wo)

	_, err := FinalizePayment(context.Background(), wo.ID, baseTime, repo)
	assert.ErrorIs(t, err, domain.ErrPaymentNotSettled)

	wo.Payment = domain.NewPaymentOrder(uuid.New(), 50, 1, baseTime)
	wo.Payment.Paid = true

	got, err := FinalizePayment(context.Background(), wo.ID, baseTime.Add(time.Hour), repo)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestFollowUpWorkOrder(t *testing.T) {
	wo := pendingWorkOrder(baseTime, 1)
	repo := newFakeWorkOrderRepo(wo)

	require.NoError(t, wo.StartVisit(baseTime))
	_, err := RecordVisitResult(context.Background(), wo.ID, []ResultLine{
		{Kind: domain.ResultExchanged, ProductID: wo.Items[0].ProductID, Name: "product", UnitPrice: 10, Quantity: 1},
		{Kind: domain.ResultAdded, ProductID: uuid.New(), Name: "extra", UnitPrice: 5, Quantity: 2},
	}, baseTime.Add(time.Hour), repo)
	require.NoError(t, err)

	next, err := FollowUpWorkOrder(context.Background(), FollowUpRequest{
		SourceID:       wo.ID,
		ScheduledAt:    baseTime.AddDate(0, 0, 7),
		WithSettlement: true,
		Installments:   3,
	}, baseTime.AddDate(0, 0, 1), repo)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, next.Status)
	assert.Len(t, next.Items, 2)
	require.NotNil(t, next.Payment)
	assert.False(t, next.Payment.Paid)
	assert.Equal(t, 3, next.Payment.Installments)

	// Persisted under its own identity.
	persisted, err := repo.Get(context.Background(), next.ID)
	require.NoError(t, err)
	assert.Equal(t, next, persisted)
}

func TestFollowUpRequiresDeliveredSource(t *testing.T) {
	wo := pendingWorkOrder(baseTime, 1)
	repo := newFakeWorkOrderRepo(wo)

	_, err := FollowUpWorkOrder(context.Background(), FollowUpRequest{
		SourceID:    wo.ID,
		ScheduledAt: baseTime.AddDate(0, 0, 7),
	}, baseTime, repo)
	require.Error(t, err)
}
