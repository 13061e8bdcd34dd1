package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Table represents a dining table row.  The pair (restaurant_id,
// table_number) is unique; the schema enforces it and Create/Update map
// the violation to ErrTableNumberExists.
type Table struct {
	ID           uint64    `json:"id"`
	RestaurantID uint64    `json:"restaurant_id"`
	TableNumber  string    `json:"table_number"`
	Capacity     uint32    `json:"capacity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ErrTableNotFound indicates that a table was not located in the DB.
var ErrTableNotFound = errors.New("table not found")

// ErrTableNumberExists indicates a duplicate table number within the same
// restaurant.
var ErrTableNumberExists = errors.New("table number already exists in this restaurant")

// TableRepo manages persistence for tables.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// Create inserts a new table and populates the generated ID and the
// DB-default timestamps on the passed struct.
func (r *TableRepo) Create(ctx context.Context, t *Table) error {
	const q = `INSERT INTO tables (restaurant_id, table_number, capacity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.RestaurantID, t.TableNumber, t.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	const sel = `SELECT restaurant_id, table_number, capacity, created_at, updated_at FROM tables WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(&t.RestaurantID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a table by its ID.  It returns ErrTableNotFound when
// there is no matching row.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*Table, error) {
	const q = `SELECT id, restaurant_id, table_number, capacity, created_at, updated_at FROM tables WHERE id = ?`
	var t Table
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByRestaurant returns all tables of a restaurant ordered by table
// number.  capacityMin > 0 restricts the result to tables seating at least
// that many guests.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, capacityMin uint32) ([]Table, error) {
	q := `SELECT id, restaurant_id, table_number, capacity, created_at, updated_at
	      FROM tables WHERE restaurant_id = ?`
	args := []any{restaurantID}
	if capacityMin > 0 {
		q += " AND capacity >= ?"
		args = append(args, capacityMin)
	}
	q += " ORDER BY table_number"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Table, 0)
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update replaces a table's number and capacity.  It returns
// ErrTableNotFound when the table does not exist and ErrTableNumberExists
// when the new number collides within the restaurant.
func (r *TableRepo) Update(ctx context.Context, id uint64, tableNumber string, capacity uint32) error {
	const q = `UPDATE tables
	           SET table_number = ?, capacity = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, tableNumber, capacity, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrTableNumberExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "not found" from "values already identical".
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTableNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a table; its time slots and their bookings follow via the
// cascade.  ErrTableNotFound is returned when the row does not exist.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// AvailableTablesQuery carries the optional dimensions of the public
// "available tables" lookup.  Date is interpreted as a UTC calendar day.
type AvailableTablesQuery struct {
	RestaurantID uint64
	CapacityMin  uint32
	Date         *time.Time
}

// ListAvailable returns tables that have at least one free slot, applying
// the optional restaurant, capacity and date filters.  The date filter
// keeps slots whose start time falls within [midnight, midnight+24h) UTC.
func (r *TableRepo) ListAvailable(ctx context.Context, q AvailableTablesQuery) ([]Table, error) {
	query := `SELECT DISTINCT t.id, t.restaurant_id, t.table_number, t.capacity, t.created_at, t.updated_at
	          FROM tables t
	          JOIN time_slots ts ON ts.table_id = t.id
	          WHERE ts.status = 'free'`
	args := []any{}
	if q.RestaurantID != 0 {
		query += " AND t.restaurant_id = ?"
		args = append(args, q.RestaurantID)
	}
	if q.CapacityMin > 0 {
		query += " AND t.capacity >= ?"
		args = append(args, q.CapacityMin)
	}
	if q.Date != nil {
		dayStart := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
		query += " AND ts.start_time >= ? AND ts.start_time < ?"
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
	}
	query += " ORDER BY t.restaurant_id, t.table_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Table, 0)
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
