package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fieldroute-service/internal/domain"
)

type SqliteCustomerRepository struct {
	DB *sql.DB
}

func NewSqliteCustomerRepository(db *sql.DB) *SqliteCustomerRepository {
	return &SqliteCustomerRepository{DB: db}
}

func (r *SqliteCustomerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT customer_id, name, address, lat, lon
	FROM customers
	WHERE customer_id = $1;
	`, id.String())

	c, err := scanCustomer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get customer %s: %w", id, domain.ErrCustomerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}

	return c, nil
}

func (r *SqliteCustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT customer_id, name, address, lat, lon
	FROM customers
	ORDER BY name;
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: iterate: %w", err)
	}

	return out, nil
}

func scanCustomer(scan func(dest ...any) error) (*domain.Customer, error) {
	var (
		rawID, name, address string
		lat, lon             float64
	)
	if err := scan(&rawID, &name, &address, &lat, &lon); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse customer id %q: %w", rawID, err)
	}

	return &domain.Customer{
		ID:       id,
		Name:     name,
		Address:  address,
		Location: domain.Coordinates{Lat: lat, Lon: lon},
	}, nil
}
