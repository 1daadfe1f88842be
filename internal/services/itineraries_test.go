package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldroute-service/internal/domain"
)

// lonDistance is a deterministic metric for route assertions.
func lonDistance(a, b domain.Coordinates) float64 {
	return math.Abs(a.Lon - b.Lon)
}

func orderAt(lon float64, scheduledAt time.Time) *domain.WorkOrder {
	return domain.NewWorkOrder(uuid.New(), uuid.New(), domain.Coordinates{Lat: 0, Lon: lon},
		scheduledAt, "", []domain.LineItem{{ProductID: uuid.New(), Name: "product", UnitPrice: 10, Quantity: 1}},
		baseTime)
}

func TestBuildItinerary(t *testing.T) {
	initial := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	final := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	inRangeA := orderAt(1, initial.Add(12*time.Hour))
	// Scheduled on the final date itself; the range is inclusive.
	inRangeB := orderAt(2, final.Add(15*time.Hour))
	outOfRange := orderAt(3, final.AddDate(0, 0, 5))
	committed := orderAt(4, initial.Add(12*time.Hour))
	require.NoError(t, committed.SetStatus(domain.StatusCommitted, baseTime))

	workOrders := newFakeWorkOrderRepo(inRangeA, inRangeB, outOfRange, committed)
	itineraries := newFakeItineraryRepo()

	it, err := BuildItinerary(context.Background(), BuildItineraryRequest{
		InitialDate: initial,
		FinalDate:   final,
	}, workOrders, itineraries, lonDistance)
	require.NoError(t, err)

	require.Len(t, it.Stops, 2)
	got := map[uuid.UUID]bool{}
	for i, s := range it.Stops {
		assert.Equal(t, i+1, s.Position)
		got[s.WorkOrder.ID] = true
	}
	assert.True(t, got[inRangeA.ID])
	assert.True(t, got[inRangeB.ID])

	persisted, err := itineraries.Get(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Same(t, it, persisted)
}

func TestBuildItineraryInvalidRange(t *testing.T) {
	_, err := BuildItinerary(context.Background(), BuildItineraryRequest{
		InitialDate: baseTime,
		FinalDate:   baseTime.AddDate(0, 0, -1),
	}, newFakeWorkOrderRepo(), newFakeItineraryRepo(), lonDistance)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestBuildItineraryListError(t *testing.T) {
	workOrders := newFakeWorkOrderRepo()
	workOrders.fail = errors.New("connection reset")

	_, err := BuildItinerary(context.Background(), BuildItineraryRequest{
		InitialDate: baseTime,
		FinalDate:   baseTime.AddDate(0, 0, 1),
	}, workOrders, newFakeItineraryRepo(), lonDistance)
	require.Error(t, err)
	assert.ErrorIs(t, err, workOrders.fail)
}

func TestOptimizeItinerary(t *testing.T) {
	it, err := domain.NewItinerary(uuid.New(), baseTime, baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	lons := []float64{0, 3, 1, 2}
	for _, lon := range lons {
		require.NoError(t, it.AddWorkOrder(orderAt(lon, baseTime)))
	}
	itineraries := newFakeItineraryRepo(it)

	got, err := OptimizeItinerary(context.Background(), it.ID, itineraries, lonDistance)
	require.NoError(t, err)

	want := []float64{0, 1, 2, 3}
	require.Len(t, got.Stops, len(want))
	for i, s := range got.Stops {
		assert.Equal(t, i+1, s.Position)
		assert.Equal(t, want[i], s.WorkOrder.Location.Lon)
	}
	assert.Equal(t, 1, itineraries.saves)
}

func TestOptimizeItineraryNotFound(t *testing.T) {
	_, err := OptimizeItinerary(context.Background(), uuid.New(), newFakeItineraryRepo(), lonDistance)
	assert.ErrorIs(t, err, domain.ErrItineraryNotFound)
}

func TestMarkLateStops(t *testing.T) {
	it, err := domain.NewItinerary(uuid.New(), baseTime, baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	overdue := orderAt(1, baseTime)
	visited := orderAt(2, baseTime)
	require.NoError(t, visited.StartVisit(baseTime.Add(5*time.Minute)))
	require.NoError(t, it.AddWorkOrder(overdue))
	require.NoError(t, it.AddWorkOrder(visited))

	itineraries := newFakeItineraryRepo(it)

	got, err := MarkLateStops(context.Background(), it.ID, baseTime.Add(time.Hour), domain.DefaultLateTolerance, itineraries)
	require.NoError(t, err)

	assert.True(t, got.Stops[0].Late)
	assert.False(t, got.Stops[1].Late)
	assert.Equal(t, 1, itineraries.saves)
}

func TestCloseItinerary(t *testing.T) {
	it, err := domain.NewItinerary(uuid.New(), baseTime, baseTime.AddDate(0, 0, 3))
	require.NoError(t, err)

	delivered := orderAt(1, baseTime)
	require.NoError(t, delivered.StartVisit(baseTime.Add(10*time.Minute)))
	result := domain.NewWorkOrderResult()
	require.NoError(t, result.AddItem(domain.ResultExchanged, delivered.Items[0].ProductID, "product", 10, 1))
	delivered.Result = result

	missed := orderAt(2, baseTime)

	cancelled := orderAt(3, baseTime)
	require.NoError(t, cancelled.SetStatus(domain.StatusCancelled, baseTime))

	require.NoError(t, it.AddWorkOrder(delivered))
	require.NoError(t, it.AddWorkOrder(missed))
	require.NoError(t, it.AddWorkOrder(cancelled))

	itineraries := newFakeItineraryRepo(it)
	workOrders := newFakeWorkOrderRepo()

	ref := baseTime.Add(24 * time.Hour)
	got, err := CloseItinerary(context.Background(), it.ID, ref, domain.DefaultLateTolerance, itineraries, workOrders)
	require.NoError(t, err)

	assert.True(t, got.Finished)
	assert.Equal(t, domain.StatusCompleted, delivered.Status)
	assert.Equal(t, domain.StatusFailed, missed.Status)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	// Settled work orders were written back.
	for _, id := range []uuid.UUID{delivered.ID, missed.ID, cancelled.ID} {
		_, err := workOrders.Get(context.Background(), id)
		require.NoError(t, err)
	}

	_, err = CloseItinerary(context.Background(), it.ID, ref, domain.DefaultLateTolerance, itineraries, workOrders)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinished)
}
