package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newStopOrder(lat, lon float64) *WorkOrder {
	return NewWorkOrder(uuid.New(), uuid.New(), Coordinates{Lat: lat, Lon: lon}, testClock, "", nil, testClock)
}

func TestNewItineraryDateRange(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	if _, err := NewItinerary(uuid.New(), jan5, jan1); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("error = %v, want ErrInvalidDateRange", err)
	}

	// Single-day ranges are legal (inclusive bounds).
	if _, err := NewItinerary(uuid.New(), jan1, jan1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddWorkOrderPositions(t *testing.T) {
	it, err := NewItinerary(uuid.New(), testClock, testClock.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := it.AddWorkOrder(newStopOrder(float64(i), 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for i, s := range it.Stops {
		if s.Position != i+1 {
			t.Errorf("stop %d position = %d", i, s.Position)
		}
	}
	if it.Progress() != "0/3" {
		t.Errorf("Progress = %q, want 0/3", it.Progress())
	}
}

// Four points laid out so the identity order zig-zags and nearest neighbor
// strictly improves on it.
func TestOptimizeRoute(t *testing.T) {
	it, err := NewItinerary(uuid.New(), testClock, testClock.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	anchor := newStopOrder(0, 0)
	far := newStopOrder(0, 3)
	near := newStopOrder(0, 1)
	mid := newStopOrder(0, 2)

	for _, wo := range []*WorkOrder{anchor, far, near, mid} {
		if err := it.AddWorkOrder(wo); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	before := it.TotalDistance(Haversine)

	if err := it.OptimizeRoute(Haversine); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(it.Stops) != 4 {
		t.Fatalf("stop count changed: %d", len(it.Stops))
	}
	if it.Stops[0].WorkOrder != anchor {
		t.Fatal("anchor stop reassigned")
	}

	// Multiset preserved: every original work order appears exactly once.
	seen := map[uuid.UUID]int{}
	for _, s := range it.Stops {
		seen[s.WorkOrder.ID]++
	}
	for _, wo := range []*WorkOrder{anchor, far, near, mid} {
		if seen[wo.ID] != 1 {
			t.Fatalf("work order %s appears %d times", wo.ID, seen[wo.ID])
		}
	}

	for i, s := range it.Stops {
		if s.Position != i+1 {
			t.Fatalf("positions not dense: stop %d has position %d", i, s.Position)
		}
	}

	want := []*WorkOrder{anchor, near, mid, far}
	for i, wo := range want {
		if it.Stops[i].WorkOrder != wo {
			t.Fatalf("stop %d = %v, want nearest-neighbor order", i+1, it.Stops[i].WorkOrder.Location)
		}
	}

	after := it.TotalDistance(Haversine)
	if after >= before {
		t.Fatalf("TotalDistance = %v, want < %v", after, before)
	}
}

func TestOptimizeRouteNoopForTwoStops(t *testing.T) {
	it, _ := NewItinerary(uuid.New(), testClock, testClock)
	a := newStopOrder(0, 5)
	b := newStopOrder(0, 1)
	_ = it.AddWorkOrder(a)
	_ = it.AddWorkOrder(b)

	calls := 0
	counting := func(x, y Coordinates) float64 {
		calls++
		return Haversine(x, y)
	}

	if err := it.OptimizeRoute(counting); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("metric called %d times for a 2-stop route", calls)
	}
	if it.Stops[0].WorkOrder != a || it.Stops[1].WorkOrder != b {
		t.Fatal("2-stop route reordered")
	}
}

// The metric must be consulted at most once per unordered pair for the
// lifetime of the itinerary.
func TestDistanceMemoization(t *testing.T) {
	it, _ := NewItinerary(uuid.New(), testClock, testClock)
	for i := 0; i < 5; i++ {
		_ = it.AddWorkOrder(newStopOrder(float64(i), float64(i%2)))
	}

	total := 0
	metric := func(x, y Coordinates) float64 {
		total++
		return Haversine(x, y)
	}

	if err := it.OptimizeRoute(metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = it.TotalDistance(metric)
	_ = it.TotalDistance(metric)

	maxPairs := 5 * 4 / 2
	if total > maxPairs {
		t.Fatalf("metric called %d times, want <= %d unordered pairs", total, maxPairs)
	}
}

func TestMarkLateOrders(t *testing.T) {
	it, _ := NewItinerary(uuid.New(), testClock, testClock)

	onTime := newStopOrder(0, 0)
	overdue := newStopOrder(0, 1)
	overdue.ScheduledAt = testClock.Add(-time.Hour)
	visited := newStopOrder(0, 2)
	visited.ScheduledAt = testClock.Add(-time.Hour)
	_ = visited.StartVisit(testClock.Add(-30 * time.Minute))

	for _, wo := range []*WorkOrder{onTime, overdue, visited} {
		_ = it.AddWorkOrder(wo)
	}

	if err := it.MarkLateOrders(testClock, DefaultLateTolerance); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	late := it.LateStops()
	if len(late) != 1 || late[0].WorkOrder != overdue {
		t.Fatalf("LateStops = %d entries, want exactly the overdue stop", len(late))
	}

	// Idempotent.
	if err := it.MarkLateOrders(testClock, DefaultLateTolerance); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(it.LateStops()) != 1 {
		t.Fatal("second pass changed the flags")
	}
}

// Full close-out over the 2024-01-01..05 route: one unvisited late stop is
// forced FAILED, the two visited stops settle to the status their outcome
// implies, and the itinerary locks.
func TestFinish(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	jan6 := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	it, err := NewItinerary(uuid.New(), jan1, jan5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completed := newTestWorkOrder(1)
	completed.ScheduledAt = jan1.Add(9 * time.Hour)
	_ = completed.StartVisit(completed.ScheduledAt)
	full := NewWorkOrderResult()
	_ = full.AddItem(ResultExchanged, completed.Items[0].ProductID, "product", 10, 1)
	completed.Result = full

	missed := newTestWorkOrder(1)
	missed.ScheduledAt = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	partial := newTestWorkOrder(2)
	partial.ScheduledAt = jan1.Add(14 * time.Hour)
	_ = partial.StartVisit(partial.ScheduledAt)
	short := NewWorkOrderResult()
	_ = short.AddItem(ResultExchanged, partial.Items[0].ProductID, "product", 10, 1)
	_ = short.AddItem(ResultRemoved, partial.Items[1].ProductID, "product", 10, 1)
	partial.Result = short

	for _, wo := range []*WorkOrder{completed, missed, partial} {
		if err := it.AddWorkOrder(wo); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := it.Finish(jan6, DefaultLateTolerance); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !it.Finished {
		t.Fatal("itinerary not finished")
	}
	if completed.Status != StatusCompleted {
		t.Errorf("completed stop status = %s", completed.Status)
	}
	if missed.Status != StatusFailed {
		t.Errorf("missed stop status = %s, want %s", missed.Status, StatusFailed)
	}
	if partial.Status != StatusPartial {
		t.Errorf("partial stop status = %s, want %s", partial.Status, StatusPartial)
	}

	late := it.LateStops()
	if len(late) != 1 || late[0].WorkOrder != missed {
		t.Fatalf("LateStops = %d entries, want exactly the missed stop at position 2", len(late))
	}
	if late[0].Position != 2 {
		t.Fatalf("late stop position = %d, want 2", late[0].Position)
	}
}

func TestFinishTwice(t *testing.T) {
	it, _ := NewItinerary(uuid.New(), testClock, testClock)
	wo := newTestWorkOrder(1)
	_ = it.AddWorkOrder(wo)

	if err := it.Finish(testClock.Add(24*time.Hour), DefaultLateTolerance); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	statusAfterFirst := wo.Status

	err := it.Finish(testClock.Add(48*time.Hour), DefaultLateTolerance)
	if !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("error = %v, want ErrAlreadyFinished", err)
	}
	if wo.Status != statusAfterFirst {
		t.Fatalf("second Finish mutated status to %s", wo.Status)
	}
}

func TestFinishedItineraryIsReadOnly(t *testing.T) {
	it, _ := NewItinerary(uuid.New(), testClock, testClock)
	_ = it.AddWorkOrder(newStopOrder(0, 0))
	if err := it.Finish(testClock, DefaultLateTolerance); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := it.AddWorkOrder(newStopOrder(0, 1)); !errors.Is(err, ErrAlreadyFinished) {
		t.Errorf("AddWorkOrder error = %v, want ErrAlreadyFinished", err)
	}
	if err := it.OptimizeRoute(Haversine); !errors.Is(err, ErrAlreadyFinished) {
		t.Errorf("OptimizeRoute error = %v, want ErrAlreadyFinished", err)
	}
	if err := it.MarkLateOrders(testClock, DefaultLateTolerance); !errors.Is(err, ErrAlreadyFinished) {
		t.Errorf("MarkLateOrders error = %v, want ErrAlreadyFinished", err)
	}
}

func TestFinishedOrdersCount(t *testing.T) {
	it, _ := NewItinerary(uuid.New(), testClock, testClock)
	a := newStopOrder(0, 0)
	b := newStopOrder(0, 1)
	_ = it.AddWorkOrder(a)
	_ = it.AddWorkOrder(b)

	_ = a.StartVisit(testClock)

	if it.FinishedOrders() != 1 {
		t.Fatalf("FinishedOrders = %d, want 1", it.FinishedOrders())
	}
	if it.Progress() != "1/2" {
		t.Fatalf("Progress = %q, want 1/2", it.Progress())
	}
}
