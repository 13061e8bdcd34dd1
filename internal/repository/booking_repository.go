// This file implements the booking side of the reservation core.  A
// booking and its slot's status are two halves of one fact, so every
// mutation here runs inside a caller-owned transaction together with the
// matching TimeSlotRepo status flip; partial application is never
// observable.  The caller locks the slot row first (GetForUpdateTx), then
// calls into this repository, then commits.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Booking mirrors the 'bookings' table.
type Booking struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	TableID    uint64    `json:"table_id"`
	TimeSlotID uint64    `json:"time_slot_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides data access for bookings.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking within the scope of an existing transaction
// and populates the generated ID and created_at on the provided record.
// The UNIQUE(time_slot_id) constraint is the storage backstop for the
// one-booking-per-slot invariant: a duplicate-key violation here means a
// concurrent transaction won the slot, surfaced as ErrSlotUnavailable.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *Booking) error {
	const q = `INSERT INTO bookings (user_id, table_id, time_slot_id) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.TableID, b.TimeSlotID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSlotUnavailable
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const sel = `SELECT user_id, table_id, time_slot_id, created_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.UserID, &b.TableID, &b.TimeSlotID, &b.CreatedAt)
}

// UserHasOverlappingTx reports whether the user already holds a booking
// whose slot interval overlaps [start, end).  The overlap predicate is the
// same half-open test the availability engine uses, applied across all of
// the user's bookings regardless of table.
func (r *BookingRepo) UserHasOverlappingTx(ctx context.Context, tx *sql.Tx, userID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1
	             FROM bookings b
	             JOIN time_slots ts ON ts.id = b.time_slot_id
	             WHERE b.user_id = ? AND ts.start_time < ? AND ts.end_time > ?
	           )`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, userID, end.UTC(), start.UTC()).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetTx loads a booking within the caller's transaction.  It returns
// ErrBookingNotFound when the row does not exist.  Ownership is checked by
// the caller so staff can cancel on behalf of any user.
func (r *BookingRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*Booking, error) {
	const q = `SELECT id, user_id, table_id, time_slot_id, created_at FROM bookings WHERE id = ?`
	var b Booking
	err := tx.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UserID, &b.TableID, &b.TimeSlotID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// DeleteTx removes a booking row within the caller's transaction.  A
// second cancellation of the same id finds no row and returns
// ErrBookingNotFound rather than succeeding as a no-op.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// BookingDetail aggregates a booking with its restaurant, table and slot
// information for display to customers and staff.
type BookingDetail struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	RestaurantID   uint64    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	TableID        uint64    `json:"table_id"`
	TableNumber    string    `json:"table_number"`
	TimeSlotID     uint64    `json:"time_slot_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	CreatedAt      time.Time `json:"created_at"`
}

const bookingDetailSelect = `SELECT b.id, b.user_id,
	       r.id, r.name,
	       t.id, t.table_number,
	       ts.id, ts.start_time, ts.end_time,
	       b.created_at
	FROM bookings b
	JOIN time_slots ts ON ts.id = b.time_slot_id
	JOIN tables t ON t.id = b.table_id
	JOIN restaurants r ON r.id = t.restaurant_id`

func scanBookingDetails(rows *sql.Rows) ([]BookingDetail, error) {
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.ID, &d.UserID,
			&d.RestaurantID, &d.RestaurantName,
			&d.TableID, &d.TableNumber,
			&d.TimeSlotID, &d.StartTime, &d.EndTime,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListByUser returns all bookings of the given user with venue and slot
// details, newest first.  When no bookings exist an empty slice is
// returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	q := bookingDetailSelect + ` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanBookingDetails(rows)
}

// ListAll returns every booking with details for staff callers, newest
// first, optionally restricted to a single table.
func (r *BookingRepo) ListAll(ctx context.Context, tableID uint64) ([]BookingDetail, error) {
	q := bookingDetailSelect
	args := []any{}
	if tableID != 0 {
		q += " WHERE b.table_id = ?"
		args = append(args, tableID)
	}
	q += " ORDER BY b.created_at DESC, b.id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanBookingDetails(rows)
}

// GetDetailForUser returns one booking with details, enforcing ownership
// in the query itself.  sql.ErrNoRows doubles as "not found" and "not
// yours" so the handler can answer 404 for both, never leaking existence.
func (r *BookingRepo) GetDetailForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
	q := bookingDetailSelect + ` WHERE b.id = ? AND b.user_id = ?`
	row := r.db.QueryRowContext(ctx, q, bookingID, userID)
	var d BookingDetail
	err := row.Scan(
		&d.ID, &d.UserID,
		&d.RestaurantID, &d.RestaurantName,
		&d.TableID, &d.TableNumber,
		&d.TimeSlotID, &d.StartTime, &d.EndTime,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
