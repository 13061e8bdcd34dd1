// This file defines the TimeSlot model and repository. A TimeSlot is a
// bookable interval on a table; its status column is the single point of
// contention in the system and is only ever flipped inside a booking
// transaction, never directly by a client-supplied value.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/table-reservation/internal/availability"
	"github.com/iliyamo/table-reservation/internal/model"
)

// Status values re-exported so callers working through the repository do
// not need a second import for the two-state enum.
const (
	SlotStatusFree     = model.SlotStatusFree
	SlotStatusReserved = model.SlotStatusReserved
)

// TimeSlot represents a time slot row.  Times are stored and compared in
// UTC ("loc=UTC" on the DSN keeps the driver consistent with
// UTC_TIMESTAMP() in queries).
type TimeSlot struct {
	ID        uint64    `json:"id"`
	TableID   uint64    `json:"table_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrSlotNotFound indicates that a time slot was not located in the DB.
var ErrSlotNotFound = errors.New("time slot not found")

// TimeSlotRepo manages persistence for time slots.
type TimeSlotRepo struct {
	db *sql.DB
}

// NewTimeSlotRepo constructs a TimeSlotRepo with the given DB handle.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

// DB exposes the underlying sql.DB so handlers can begin transactions
// spanning the slot and booking repositories.
func (r *TimeSlotRepo) DB() *sql.DB { return r.db }

// Create inserts a new slot.  Slots are always created free; the status
// column is left to its DB default.  The generated ID and default fields
// are populated on the passed struct.
func (r *TimeSlotRepo) Create(ctx context.Context, s *TimeSlot) error {
	const q = `INSERT INTO time_slots (table_id, start_time, end_time) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TableID, s.StartTime.UTC(), s.EndTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	const sel = `SELECT table_id, start_time, end_time, status, created_at, updated_at FROM time_slots WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.TableID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a slot by its ID.  It returns ErrSlotNotFound when
// there is no matching row.
func (r *TimeSlotRepo) GetByID(ctx context.Context, id uint64) (*TimeSlot, error) {
	const q = `SELECT id, table_id, start_time, end_time, status, created_at, updated_at FROM time_slots WHERE id = ?`
	var s TimeSlot
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.TableID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetForUpdateTx loads a slot inside the caller's transaction with a
// row-level write lock (SELECT ... FOR UPDATE).  Every status transition
// of a slot goes through this method, serializing concurrent booking or
// cancellation attempts on the same slot while leaving other slots fully
// parallel.  It returns ErrSlotNotFound when the row does not exist.
func (r *TimeSlotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*TimeSlot, error) {
	const q = `SELECT id, table_id, start_time, end_time, status, created_at, updated_at
	           FROM time_slots WHERE id = ? FOR UPDATE`
	var s TimeSlot
	err := tx.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.TableID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// SetStatusTx flips a slot's status within the caller's transaction.  The
// caller must hold the row lock obtained via GetForUpdateTx.
func (r *TimeSlotRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE time_slots SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// ReservedIntervals returns the [start, end) intervals of all *reserved*
// slots on the given table, feeding the availability engine's overlap
// check.  excludeSlotID skips the slot being edited so an update-in-place
// does not conflict with itself; pass 0 when creating.
func (r *TimeSlotRepo) ReservedIntervals(ctx context.Context, tableID, excludeSlotID uint64) ([]availability.Interval, error) {
	return queryReservedIntervals(ctx, r.db, tableID, excludeSlotID)
}

// ReservedIntervalsTx is the transactional variant, reading through the
// caller's transaction.  The booking path uses it after locking the
// target slot so the overlap decision and the status flip commit or roll
// back together.
func (r *TimeSlotRepo) ReservedIntervalsTx(ctx context.Context, tx *sql.Tx, tableID, excludeSlotID uint64) ([]availability.Interval, error) {
	return queryReservedIntervals(ctx, tx, tableID, excludeSlotID)
}

// rowQuerier covers *sql.DB and *sql.Tx for read-only interval queries.
type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryReservedIntervals(ctx context.Context, q rowQuerier, tableID, excludeSlotID uint64) ([]availability.Interval, error) {
	query := `SELECT id, start_time, end_time FROM time_slots WHERE table_id = ? AND status = 'reserved'`
	args := []any{tableID}
	if excludeSlotID != 0 {
		query += " AND id <> ?"
		args = append(args, excludeSlotID)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.SlotID, &iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInterval replaces a slot's start and end times.  It returns
// ErrSlotNotFound when the slot does not exist.  Status is deliberately
// not updatable here.
func (r *TimeSlotRepo) UpdateInterval(ctx context.Context, id uint64, start, end time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_slots SET start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		start.UTC(), end.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM time_slots WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSlotNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a slot.  Any booking referencing it is removed by the
// cascade; this is the administrative override path for reserved slots.
func (r *TimeSlotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// AvailableSlotsQuery defines the filters of the public "available slots"
// lookup.  IncludePast is honoured only for staff callers; non-staff users
// never see slots whose start time has already passed.
type AvailableSlotsQuery struct {
	RestaurantID uint64
	TableID      uint64
	Date         *time.Time
	IncludePast  bool
}

// ListAvailable returns free slots matching the query, ordered by start
// time ascending.
func (r *TimeSlotRepo) ListAvailable(ctx context.Context, q AvailableSlotsQuery) ([]TimeSlot, error) {
	query := `SELECT ts.id, ts.table_id, ts.start_time, ts.end_time, ts.status, ts.created_at, ts.updated_at
	          FROM time_slots ts
	          JOIN tables t ON t.id = ts.table_id
	          WHERE ts.status = 'free'`
	args := []any{}
	if !q.IncludePast {
		query += " AND ts.start_time >= UTC_TIMESTAMP()"
	}
	if q.RestaurantID != 0 {
		query += " AND t.restaurant_id = ?"
		args = append(args, q.RestaurantID)
	}
	if q.TableID != 0 {
		query += " AND ts.table_id = ?"
		args = append(args, q.TableID)
	}
	if q.Date != nil {
		dayStart := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
		query += " AND ts.start_time >= ? AND ts.start_time < ?"
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
	}
	query += " ORDER BY ts.start_time ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]TimeSlot, 0)
	for rows.Next() {
		var s TimeSlot
		if err := rows.Scan(&s.ID, &s.TableID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
