package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Initialize the database schema. Statements stick to portable DDL so the
// same code serves the embedded SQLite server path and the dbtool Postgres
// path.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			customer_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS work_orders (
			work_order_id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			status TEXT NOT NULL,
			notes TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			scheduled_at TEXT NOT NULL,
			visited_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS work_order_items (
			work_order_id TEXT NOT NULL,
			line_no INTEGER NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			unit_price REAL NOT NULL,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (work_order_id, line_no)
		);`,
		`CREATE TABLE IF NOT EXISTS work_order_result_items (
			work_order_id TEXT NOT NULL,
			line_no INTEGER NOT NULL,
			kind TEXT NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			unit_price REAL NOT NULL,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (work_order_id, line_no)
		);`,
		`CREATE TABLE IF NOT EXISTS payment_orders (
			payment_order_id TEXT PRIMARY KEY,
			work_order_id TEXT NOT NULL UNIQUE,
			total_value REAL NOT NULL,
			installments INTEGER NOT NULL,
			paid INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS itineraries (
			itinerary_id TEXT PRIMARY KEY,
			initial_date TEXT NOT NULL,
			final_date TEXT NOT NULL,
			finished INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS itinerary_stops (
			itinerary_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			work_order_id TEXT NOT NULL,
			late INTEGER NOT NULL,
			PRIMARY KEY (itinerary_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS distance_cache (
			pair_key TEXT PRIMARY KEY,
			distance_km REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_work_orders_status_scheduled
		ON work_orders(status, scheduled_at);`,
		`CREATE INDEX IF NOT EXISTS idx_itinerary_stops_work_order
		ON itinerary_stops(work_order_id);`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type CustomerSeed struct {
	CustomerID string  `json:"customer_id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

type ItemSeed struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type WorkOrderSeed struct {
	WorkOrderID string     `json:"work_order_id"`
	CustomerID  string     `json:"customer_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Notes       string     `json:"notes"`
	Items       []ItemSeed `json:"items"`
}

type Seed struct {
	Customers  []CustomerSeed  `json:"customers"`
	WorkOrders []WorkOrderSeed `json:"work_orders"`
}

// Populate the database with customers and pending work orders from a JSON
// file. Existing rows with the same ids are replaced.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	customers := make(map[string]CustomerSeed, len(data.Customers))
	for i, c := range data.Customers {
		if _, err := uuid.Parse(c.CustomerID); err != nil {
			return fmt.Errorf("seed: customer at index %d: invalid id %q", i+1, c.CustomerID)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed: customer at index %d: name cannot be empty", i+1)
		}
		customers[c.CustomerID] = c
	}

	for i, wo := range data.WorkOrders {
		if _, err := uuid.Parse(wo.WorkOrderID); err != nil {
			return fmt.Errorf("seed: work order at index %d: invalid id %q", i+1, wo.WorkOrderID)
		}
		if _, ok := customers[wo.CustomerID]; !ok {
			return fmt.Errorf("seed: work order at index %d: unknown customer %q", i+1, wo.CustomerID)
		}
		if wo.ScheduledAt.IsZero() {
			return fmt.Errorf("seed: work order at index %d: scheduled_at is required", i+1)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	customerStmt, err := tx.Prepare(`
	INSERT INTO customers (customer_id, name, address, lat, lon)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (customer_id) DO UPDATE
	SET name = EXCLUDED.name,
		address = EXCLUDED.address,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare customer insert: %w", err)
	}
	defer customerStmt.Close()

	for _, c := range data.Customers {
		if _, err := customerStmt.Exec(c.CustomerID, c.Name, c.Address, c.Lat, c.Lon); err != nil {
			return fmt.Errorf("seed: insert customer %s: %w", c.CustomerID, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	orderStmt, err := tx.Prepare(`
	INSERT INTO work_orders (
		work_order_id, customer_id, status, notes, lat, lon,
		created_at, updated_at, scheduled_at, visited_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)
	ON CONFLICT (work_order_id) DO UPDATE
	SET customer_id = EXCLUDED.customer_id,
		status = EXCLUDED.status,
		notes = EXCLUDED.notes,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		updated_at = EXCLUDED.updated_at,
		scheduled_at = EXCLUDED.scheduled_at;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare work order insert: %w", err)
	}
	defer orderStmt.Close()

	itemStmt, err := tx.Prepare(`
	INSERT INTO work_order_items (work_order_id, line_no, product_id, name, unit_price, quantity)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (work_order_id, line_no) DO UPDATE
	SET product_id = EXCLUDED.product_id,
		name = EXCLUDED.name,
		unit_price = EXCLUDED.unit_price,
		quantity = EXCLUDED.quantity;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare item insert: %w", err)
	}
	defer itemStmt.Close()

	for _, wo := range data.WorkOrders {
		c := customers[wo.CustomerID]
		scheduled := wo.ScheduledAt.UTC().Format(time.RFC3339Nano)

		if _, err := orderStmt.Exec(
			wo.WorkOrderID, wo.CustomerID, "PENDING", wo.Notes, c.Lat, c.Lon,
			now, now, scheduled,
		); err != nil {
			return fmt.Errorf("seed: insert work order %s: %w", wo.WorkOrderID, err)
		}

		for i, item := range wo.Items {
			if _, err := itemStmt.Exec(
				wo.WorkOrderID, i+1, item.ProductID, item.Name, item.UnitPrice, item.Quantity,
			); err != nil {
				return fmt.Errorf("seed: insert item %d of work order %s: %w", i+1, wo.WorkOrderID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
