package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

// SqliteWorkOrderRepository persists work orders with their line items,
// result items and settlement.
type SqliteWorkOrderRepository struct {
	DB *sql.DB
}

func NewSqliteWorkOrderRepository(db *sql.DB) *SqliteWorkOrderRepository {
	return &SqliteWorkOrderRepository{DB: db}
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (r *SqliteWorkOrderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := r.getHeader(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, wo); err != nil {
		return nil, err
	}

	return wo, nil
}

func (r *SqliteWorkOrderRepository) getHeader(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT work_order_id, customer_id, status, notes, lat, lon,
		created_at, updated_at, scheduled_at, visited_at
	FROM work_orders
	WHERE work_order_id = $1;
	`, id.String())

	var (
		rawID, rawCustomer, status, notes string
		lat, lon                          float64
		createdAt, updatedAt, scheduledAt string
		visitedAt                         sql.NullString
	)
	err := row.Scan(&rawID, &rawCustomer, &status, &notes, &lat, &lon,
		&createdAt, &updatedAt, &scheduledAt, &visitedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get work order %s: %w", id, domain.ErrWorkOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get work order %s: scan: %w", id, err)
	}

	return r.hydrate(rawID, rawCustomer, status, notes, lat, lon, createdAt, updatedAt, scheduledAt, visitedAt)
}

func (r *SqliteWorkOrderRepository) hydrate(
	rawID, rawCustomer, status, notes string,
	lat, lon float64,
	createdAt, updatedAt, scheduledAt string,
	visitedAt sql.NullString,
) (*domain.WorkOrder, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("hydrate work order: parse id %q: %w", rawID, err)
	}
	customerID, err := uuid.Parse(rawCustomer)
	if err != nil {
		return nil, fmt.Errorf("hydrate work order %s: parse customer id %q: %w", rawID, rawCustomer, err)
	}

	wo := &domain.WorkOrder{
		ID:         id,
		CustomerID: customerID,
		Location:   domain.Coordinates{Lat: lat, Lon: lon},
		Notes:      notes,
		Status:     domain.WorkOrderStatus(status),
	}
	if !wo.Status.Valid() {
		return nil, fmt.Errorf("hydrate work order %s: unknown status %q", rawID, status)
	}

	if wo.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("hydrate work order %s: created_at: %w", rawID, err)
	}
	if wo.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("hydrate work order %s: updated_at: %w", rawID, err)
	}
	if wo.ScheduledAt, err = parseTime(scheduledAt); err != nil {
		return nil, fmt.Errorf("hydrate work order %s: scheduled_at: %w", rawID, err)
	}
	if visitedAt.Valid {
		visited, err := parseTime(visitedAt.String)
		if err != nil {
			return nil, fmt.Errorf("hydrate work order %s: visited_at: %w", rawID, err)
		}
		wo.VisitedAt = &visited
	}

	return wo, nil
}

func (r *SqliteWorkOrderRepository) loadChildren(ctx context.Context, wo *domain.WorkOrder) error {
	items, err := r.loadItems(ctx, wo.ID)
	if err != nil {
		return err
	}
	wo.Items = items

	result, err := r.loadResult(ctx, wo.ID)
	if err != nil {
		return err
	}
	wo.Result = result

	payment, err := r.loadPayment(ctx, wo.ID)
	if err != nil {
		return err
	}
	wo.Payment = payment

	return nil
}

func (r *SqliteWorkOrderRepository) loadItems(ctx context.Context, id uuid.UUID) ([]domain.LineItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT product_id, name, unit_price, quantity
	FROM work_order_items
	WHERE work_order_id = $1
	ORDER BY line_no;
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("load items of %s: query: %w", id, err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var (
			rawProduct string
			item       domain.LineItem
		)
		if err := rows.Scan(&rawProduct, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("load items of %s: scan: %w", id, err)
		}
		if item.ProductID, err = uuid.Parse(rawProduct); err != nil {
			return nil, fmt.Errorf("load items of %s: parse product id %q: %w", id, rawProduct, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load items of %s: iterate: %w", id, err)
	}

	return items, nil
}

func (r *SqliteWorkOrderRepository) loadResult(ctx context.Context, id uuid.UUID) (*domain.WorkOrderResult, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT kind, product_id, name, unit_price, quantity
	FROM work_order_result_items
	WHERE work_order_id = $1
	ORDER BY line_no;
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("load result of %s: query: %w", id, err)
	}
	defer rows.Close()

	var result *domain.WorkOrderResult
	for rows.Next() {
		var (
			kind, rawProduct, name string
			unitPrice              float64
			quantity               int
		)
		if err := rows.Scan(&kind, &rawProduct, &name, &unitPrice, &quantity); err != nil {
			return nil, fmt.Errorf("load result of %s: scan: %w", id, err)
		}
		productID, err := uuid.Parse(rawProduct)
		if err != nil {
			return nil, fmt.Errorf("load result of %s: parse product id %q: %w", id, rawProduct, err)
		}

		if result == nil {
			result = domain.NewWorkOrderResult()
		}
		// AddItem keeps TotalValue consistent while rebuilding.
		if err := result.AddItem(domain.ResultItemKind(kind), productID, name, unitPrice, quantity); err != nil {
			return nil, fmt.Errorf("load result of %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load result of %s: iterate: %w", id, err)
	}

	return result, nil
}

func (r *SqliteWorkOrderRepository) loadPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentOrder, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT payment_order_id, total_value, installments, paid, created_at
	FROM payment_orders
	WHERE work_order_id = $1;
	`, id.String())

	var (
		rawID, createdAt string
		totalValue       float64
		installments     int
		paid             int
	)
	err := row.Scan(&rawID, &totalValue, &installments, &paid, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load payment of %s: scan: %w", id, err)
	}

	paymentID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("load payment of %s: parse id %q: %w", id, rawID, err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("load payment of %s: created_at: %w", id, err)
	}

	return &domain.PaymentOrder{
		ID:           paymentID,
		TotalValue:   totalValue,
		Installments: installments,
		Paid:         paid != 0,
		CreatedAt:    created,
	}, nil
}

// ListSchedulable returns PENDING work orders scheduled in [from, to),
// children included.
func (r *SqliteWorkOrderRepository) ListSchedulable(ctx context.Context, from, to time.Time) ([]*domain.WorkOrder, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT work_order_id, customer_id, status, notes, lat, lon,
		created_at, updated_at, scheduled_at, visited_at
	FROM work_orders
	WHERE status = $1 AND scheduled_at >= $2 AND scheduled_at < $3
	ORDER BY scheduled_at;
	`, string(domain.StatusPending), fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, fmt.Errorf("list schedulable work orders: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.WorkOrder
	for rows.Next() {
		var (
			rawID, rawCustomer, status, notes string
			lat, lon                          float64
			createdAt, updatedAt, scheduledAt string
			visitedAt                         sql.NullString
		)
		if err := rows.Scan(&rawID, &rawCustomer, &status, &notes, &lat, &lon,
			&createdAt, &updatedAt, &scheduledAt, &visitedAt); err != nil {
			return nil, fmt.Errorf("list schedulable work orders: scan: %w", err)
		}

		wo, err := r.hydrate(rawID, rawCustomer, status, notes, lat, lon, createdAt, updatedAt, scheduledAt, visitedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, wo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedulable work orders: iterate: %w", err)
	}

	for _, wo := range out {
		if err := r.loadChildren(ctx, wo); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Save upserts the work order and rewrites its child rows in one
// transaction.
func (r *SqliteWorkOrderRepository) Save(ctx context.Context, wo *domain.WorkOrder) error {
	if wo == nil {
		return errors.New("save work order: work order is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save work order %s: begin tx: %w", wo.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveWorkOrderTx(ctx, tx, wo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save work order %s: commit tx: %w", wo.ID, err)
	}

	return nil
}

func saveWorkOrderTx(ctx context.Context, tx *sql.Tx, wo *domain.WorkOrder) error {
	var visitedAt any
	if wo.VisitedAt != nil {
		visitedAt = fmtTime(*wo.VisitedAt)
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO work_orders (
		work_order_id, customer_id, status, notes, lat, lon,
		created_at, updated_at, scheduled_at, visited_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (work_order_id) DO UPDATE
	SET status = EXCLUDED.status,
		notes = EXCLUDED.notes,
		updated_at = EXCLUDED.updated_at,
		scheduled_at = EXCLUDED.scheduled_at,
		visited_at = EXCLUDED.visited_at;
	`,
		wo.ID.String(), wo.CustomerID.String(), string(wo.Status), wo.Notes,
		wo.Location.Lat, wo.Location.Lon,
		fmtTime(wo.CreatedAt), fmtTime(wo.UpdatedAt), fmtTime(wo.ScheduledAt), visitedAt,
	); err != nil {
		return fmt.Errorf("save work order %s: upsert header: %w", wo.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM work_order_items WHERE work_order_id = $1;`, wo.ID.String()); err != nil {
		return fmt.Errorf("save work order %s: clear items: %w", wo.ID, err)
	}
	for i, item := range wo.Items {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO work_order_items (work_order_id, line_no, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6);
		`, wo.ID.String(), i+1, item.ProductID.String(), item.Name, item.UnitPrice, item.Quantity); err != nil {
			return fmt.Errorf("save work order %s: insert item %d: %w", wo.ID, i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM work_order_result_items WHERE work_order_id = $1;`, wo.ID.String()); err != nil {
		return fmt.Errorf("save work order %s: clear result items: %w", wo.ID, err)
	}
	if wo.Result != nil {
		lineNo := 0
		for _, bucket := range [][]domain.ResultItem{wo.Result.Exchanged, wo.Result.Added, wo.Result.Removed} {
			for _, item := range bucket {
				lineNo++
				if _, err := tx.ExecContext(ctx, `
				INSERT INTO work_order_result_items (work_order_id, line_no, kind, product_id, name, unit_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7);
				`, wo.ID.String(), lineNo, string(item.Kind), item.ProductID.String(),
					item.Name, item.UnitPrice, item.Quantity); err != nil {
					return fmt.Errorf("save work order %s: insert result item %d: %w", wo.ID, lineNo, err)
				}
			}
		}
	}

	if wo.Payment != nil {
		paid := 0
		if wo.Payment.Paid {
			paid = 1
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO payment_orders (payment_order_id, work_order_id, total_value, installments, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (work_order_id) DO UPDATE
		SET total_value = EXCLUDED.total_value,
			installments = EXCLUDED.installments,
			paid = EXCLUDED.paid;
		`, wo.Payment.ID.String(), wo.ID.String(), wo.Payment.TotalValue,
			wo.Payment.Installments, paid, fmtTime(wo.Payment.CreatedAt)); err != nil {
			return fmt.Errorf("save work order %s: upsert payment: %w", wo.ID, err)
		}
	}

	return nil
}
