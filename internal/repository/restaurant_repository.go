// Package repository contains data access logic separated from HTTP
// handlers. This file defines the Restaurant model and repository methods
// for CRUD and lookup operations. A Restaurant is the root of the
// ownership chain restaurant -> table -> time slot; deleting one cascades
// through the whole chain via foreign keys.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values
	"strings"      // strings builds the optional name filter
	"time"
)

// Restaurant represents a restaurant entity persisted in the database.
// The ID field is the primary key and is auto-incremented by the DB.
type Restaurant struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrRestaurantNotFound is returned when a restaurant cannot be found.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// RestaurantRepo encapsulates all database queries related to restaurants.
type RestaurantRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewRestaurantRepo constructs a RestaurantRepo with the provided DB
// handle, allowing dependency injection in tests and at startup.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *RestaurantRepo) DB() *sql.DB { return r.db }

// Create inserts a new restaurant.  On success the ID field is populated
// with the auto-generated value and a follow-up SELECT fills the
// timestamp fields so callers receive a fully populated record.
func (r *RestaurantRepo) Create(ctx context.Context, rest *Restaurant) error {
	const qInsert = "INSERT INTO restaurants (name, address) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, rest.Name, rest.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)

	const qSelect = "SELECT name, address, created_at, updated_at FROM restaurants WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, rest.ID).Scan(&rest.Name, &rest.Address, &rest.CreatedAt, &rest.UpdatedAt)
}

// GetByID fetches a restaurant by its ID.  It returns
// ErrRestaurantNotFound if no row is found.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*Restaurant, error) {
	const q = "SELECT id, name, address, created_at, updated_at FROM restaurants WHERE id = ?"
	var rest Restaurant
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&rest.ID, &rest.Name, &rest.Address, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// List returns restaurants ordered by id.  When nameFilter is non-empty a
// case-insensitive substring match on the name column is applied, mirroring
// the public search behaviour.
func (r *RestaurantRepo) List(ctx context.Context, nameFilter string) ([]*Restaurant, error) {
	q := "SELECT id, name, address, created_at, updated_at FROM restaurants"
	args := []any{}
	if s := strings.TrimSpace(nameFilter); s != "" {
		q += " WHERE LOWER(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Restaurant, 0)
	for rows.Next() {
		rest := new(Restaurant)
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Address, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces a restaurant's name and address.  It returns
// ErrRestaurantNotFound when the row does not exist.
func (r *RestaurantRepo) Update(ctx context.Context, id uint64, name, address string) error {
	const q = `UPDATE restaurants
	           SET name = ?, address = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, address, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "not found" from "values already identical".
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM restaurants WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRestaurantNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a restaurant.  Tables, time slots and bookings under it
// are removed by the foreign-key cascade declared in the schema.  It
// returns ErrRestaurantNotFound when the row does not exist.
func (r *RestaurantRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM restaurants WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}
