package domain

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLateTolerance is the grace window applied when callers do not
// configure one.
const DefaultLateTolerance = 15 * time.Minute

// ItineraryStop binds a work order to a route slot. Position is a dense
// 1-based rank matching slice order; Late is derived and recomputed on
// demand.
type ItineraryStop struct {
	Position  int
	Late      bool
	WorkOrder *WorkOrder
}

// Itinerary is a dated route over work orders. Stops keep a contiguous 1..N
// position sequence matching slice order. Once finished the itinerary is
// read-only with respect to routing and status.
type Itinerary struct {
	ID          uuid.UUID
	InitialDate time.Time
	FinalDate   time.Time
	Stops       []*ItineraryStop
	Finished    bool

	// distances memoizes the metric per unordered work-order pair. Private to
	// this instance; never shared across itineraries.
	distances map[pairKey]float64
}

// pairKey identifies an unordered pair of work orders. The two ids are
// stored lexically ordered so (A,B) and (B,A) hit the same slot.
type pairKey struct {
	lo uuid.UUID
	hi uuid.UUID
}

func newPairKey(a, b uuid.UUID) pairKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// NewItinerary builds an open itinerary over the inclusive
// [initial, final] date range.
func NewItinerary(id uuid.UUID, initialDate, finalDate time.Time) (*Itinerary, error) {
	if finalDate.Before(initialDate) {
		return nil, ErrInvalidDateRange
	}
	return &Itinerary{
		ID:          id,
		InitialDate: initialDate,
		FinalDate:   finalDate,
		distances:   make(map[pairKey]float64),
	}, nil
}

// AddWorkOrder appends a new stop at the next position.
func (it *Itinerary) AddWorkOrder(wo *WorkOrder) error {
	if it.Finished {
		return ErrAlreadyFinished
	}
	it.Stops = append(it.Stops, &ItineraryStop{
		Position:  len(it.Stops) + 1,
		WorkOrder: wo,
	})
	return nil
}

func (it *Itinerary) distanceBetween(a, b *WorkOrder, dist DistanceFunc) float64 {
	if it.distances == nil {
		it.distances = make(map[pairKey]float64)
	}
	key := newPairKey(a.ID, b.ID)
	if d, ok := it.distances[key]; ok {
		return d
	}
	d := dist(a.Location, b.Location)
	it.distances[key] = d
	return d
}

// OptimizeRoute reorders stops with a greedy nearest-neighbor pass.
//
// The stop currently at position 1 stays the route anchor. At each step the
// not-yet-placed stop closest to the last placed one is appended, first
// found winning ties, then positions are renumbered 1..N. O(n^2) over the
// memoized metric; intentionally a heuristic, not an exact solver.
func (it *Itinerary) OptimizeRoute(dist DistanceFunc) error {
	if it.Finished {
		return ErrAlreadyFinished
	}
	if len(it.Stops) <= 2 {
		return nil
	}

	remaining := make([]*ItineraryStop, len(it.Stops)-1)
	copy(remaining, it.Stops[1:])

	current := it.Stops[0]
	ordered := make([]*ItineraryStop, 0, len(it.Stops))
	ordered = append(ordered, current)

	for len(remaining) > 0 {
		best := 0
		bestDist := it.distanceBetween(current.WorkOrder, remaining[0].WorkOrder, dist)
		for i := 1; i < len(remaining); i++ {
			d := it.distanceBetween(current.WorkOrder, remaining[i].WorkOrder, dist)
			// Strict comparison keeps the first candidate on ties.
			if d < bestDist {
				best = i
				bestDist = d
			}
		}

		current = remaining[best]
		ordered = append(ordered, current)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	for i, s := range ordered {
		s.Position = i + 1
	}
	it.Stops = ordered
	return nil
}

// TotalDistance sums the metric over consecutive stop pairs in current
// order. Zero for one stop or none.
func (it *Itinerary) TotalDistance(dist DistanceFunc) float64 {
	total := 0.0
	for i := 1; i < len(it.Stops); i++ {
		total += it.distanceBetween(it.Stops[i-1].WorkOrder, it.Stops[i].WorkOrder, dist)
	}
	return total
}

// MarkLateOrders recomputes every stop's Late flag against the reference
// time. Idempotent; no side effects beyond the flag.
func (it *Itinerary) MarkLateOrders(ref time.Time, tolerance time.Duration) error {
	if it.Finished {
		return ErrAlreadyFinished
	}
	for _, s := range it.Stops {
		s.Late = s.WorkOrder.IsLate(ref, tolerance)
	}
	return nil
}

// Finish closes the route: marks late stops, settles each work order's
// terminal status (derived from its outcome, or forced FAILED when the stop
// was never visited and is late), and locks the itinerary. Every derived
// transition is validated up front so a failing one leaves all state
// unchanged.
func (it *Itinerary) Finish(ref time.Time, tolerance time.Duration) error {
	if it.Finished {
		return ErrAlreadyFinished
	}

	for _, s := range it.Stops {
		wo := s.WorkOrder
		if wo.Status.IsTerminal() || wo.Result == nil {
			continue
		}
		target := wo.StatusFromResult(wo.Result)
		if !CanTransition(wo.Status, target) {
			return &InvalidTransitionError{From: wo.Status, To: target}
		}
	}

	if err := it.MarkLateOrders(ref, tolerance); err != nil {
		return err
	}

	for _, s := range it.Stops {
		wo := s.WorkOrder
		switch {
		case wo.Status.IsTerminal():
			// Outcome already reconciled during execution.
		case wo.Result != nil:
			if _, err := wo.ApplyResult(wo.Result, ref); err != nil {
				return err
			}
		case s.Late:
			wo.override(StatusFailed, ref)
		}
	}

	it.Finished = true
	return nil
}

// LateStops returns the stops currently flagged late.
func (it *Itinerary) LateStops() []*ItineraryStop {
	var late []*ItineraryStop
	for _, s := range it.Stops {
		if s.Late {
			late = append(late, s)
		}
	}
	return late
}

// TotalOrders is the number of stops on the route.
func (it *Itinerary) TotalOrders() int { return len(it.Stops) }

// FinishedOrders counts stops whose work order has a recorded visit.
func (it *Itinerary) FinishedOrders() int {
	n := 0
	for _, s := range it.Stops {
		if s.WorkOrder.VisitedAt != nil {
			n++
		}
	}
	return n
}

// Progress renders visit completion as "finished/total".
func (it *Itinerary) Progress() string {
	return fmt.Sprintf("%d/%d", it.FinishedOrders(), it.TotalOrders())
}
