package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// SqliteItineraryRepository persists itineraries and their stops. Get
// rehydrates every stop's work order through the work-order repository.
type SqliteItineraryRepository struct {
	DB         *sql.DB
	WorkOrders *SqliteWorkOrderRepository
}

func NewSqliteItineraryRepository(db *sql.DB, workOrders *SqliteWorkOrderRepository) *SqliteItineraryRepository {
	return &SqliteItineraryRepository{DB: db, WorkOrders: workOrders}
}

func (r *SqliteItineraryRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Itinerary, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT itinerary_id, initial_date, final_date, finished
	FROM itineraries
	WHERE itinerary_id = $1;
	`, id.String())

	var (
		rawID, initialDate, finalDate string
		finished                      int
	)
	err := row.Scan(&rawID, &initialDate, &finalDate, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get itinerary %s: %w", id, domain.ErrItineraryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get itinerary %s: scan: %w", id, err)
	}

	initial, err := parseTime(initialDate)
	if err != nil {
		return nil, fmt.Errorf("get itinerary %s: initial_date: %w", id, err)
	}
	final, err := parseTime(finalDate)
	if err != nil {
		return nil, fmt.Errorf("get itinerary %s: final_date: %w", id, err)
	}

	it, err := domain.NewItinerary(id, initial, final)
	if err != nil {
		return nil, fmt.Errorf("get itinerary %s: %w", id, err)
	}

	stops, err := r.loadStops(ctx, id)
	if err != nil {
		return nil, err
	}
	it.Stops = stops
	it.Finished = finished != 0

	return it, nil
}

func (r *SqliteItineraryRepository) loadStops(ctx context.Context, id uuid.UUID) ([]*domain.ItineraryStop, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT position, work_order_id, late
	FROM itinerary_stops
	WHERE itinerary_id = $1
	ORDER BY position;
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("load stops of %s: query: %w", id, err)
	}
	defer rows.Close()

	type stopRow struct {
		position    int
		workOrderID uuid.UUID
		late        bool
	}
	var stopRows []stopRow

	for rows.Next() {
		var (
			position int
			rawWO    string
			late     int
		)
		if err := rows.Scan(&position, &rawWO, &late); err != nil {
			return nil, fmt.Errorf("load stops of %s: scan: %w", id, err)
		}
		workOrderID, err := uuid.Parse(rawWO)
		if err != nil {
			return nil, fmt.Errorf("load stops of %s: parse work order id %q: %w", id, rawWO, err)
		}
		stopRows = append(stopRows, stopRow{position: position, workOrderID: workOrderID, late: late != 0})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load stops of %s: iterate: %w", id, err)
	}

	stops := make([]*domain.ItineraryStop, 0, len(stopRows))
	for _, sr := range stopRows {
		wo, err := r.WorkOrders.Get(ctx, sr.workOrderID)
		if err != nil {
			return nil, fmt.Errorf("load stops of %s: %w", id, err)
		}
		stops = append(stops, &domain.ItineraryStop{
			Position:  sr.position,
			Late:      sr.late,
			WorkOrder: wo,
		})
	}

	return stops, nil
}

// Save upserts the itinerary, rewrites its stop rows, and persists every
// stop's work order so route and lifecycle state stay consistent.
func (r *SqliteItineraryRepository) Save(ctx context.Context, it *domain.Itinerary) error {
	if it == nil {
		return errors.New("save itinerary: itinerary is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save itinerary %s: begin tx: %w", it.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	finished := 0
	if it.Finished {
		finished = 1
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO itineraries (itinerary_id, initial_date, final_date, finished)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (itinerary_id) DO UPDATE
	SET initial_date = EXCLUDED.initial_date,
		final_date = EXCLUDED.final_date,
		finished = EXCLUDED.finished;
	`, it.ID.String(), fmtTime(it.InitialDate), fmtTime(it.FinalDate), finished); err != nil {
		return fmt.Errorf("save itinerary %s: upsert header: %w", it.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM itinerary_stops WHERE itinerary_id = $1;`, it.ID.String()); err != nil {
		return fmt.Errorf("save itinerary %s: clear stops: %w", it.ID, err)
	}

	for _, stop := range it.Stops {
		late := 0
		if stop.Late {
			late = 1
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO itinerary_stops (itinerary_id, position, work_order_id, late)
		VALUES ($1, $2, $3, $4);
		`, it.ID.String(), stop.Position, stop.WorkOrder.ID.String(), late); err != nil {
			return fmt.Errorf("save itinerary %s: insert stop %d: %w", it.ID, stop.Position, err)
		}

		if err := saveWorkOrderTx(ctx, tx, stop.WorkOrder); err != nil {
			return fmt.Errorf("save itinerary %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save itinerary %s: commit tx: %w", it.ID, err)
	}

	return nil
}
