package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/repository"
)

func newBookingHandler(t *testing.T) (sqlmock.Sqlmock, *BookingHandler, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewTimeSlotRepo(db))
	h.PublishEvents = false
	return mock, h, func() { db.Close() }
}

// bookingCtx builds an echo context carrying an authenticated identity,
// the way JWTAuth leaves it.
func bookingCtx(t *testing.T, method, target, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c, rec
}

var bookingSlotColumns = []string{"id", "table_id", "start_time", "end_time", "status", "created_at", "updated_at"}

var (
	errDeadlock  = errors.New("Error 1213 (40001): Deadlock found when trying to get lock")
	errDuplicate = errors.New("Error 1062 (23000): Duplicate entry '5-2' for key 'tables.uq_restaurant_table_number'")
)

func TestCreateBookingMissingSlotID(t *testing.T) {
	_, h, done := newBookingHandler(t)
	defer done()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingSuccess(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns).
			AddRow(7, 3, start, end, repository.SlotStatusFree, now, now))
	mock.ExpectQuery("status = 'reserved'").
		WithArgs(uint64(3), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time"}))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(42), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = ?")).
		WithArgs(repository.SlotStatusReserved, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(uint64(42), uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "table_id", "time_slot_id", "created_at"}).
			AddRow(42, 3, 7, now))
	mock.ExpectCommit()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{"time_slot_id":7}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"time_slot_id":7`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSlotReserved(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns).
			AddRow(7, 3, start, start.Add(time.Hour), repository.SlotStatusReserved, now, now))
	mock.ExpectRollback()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{"time_slot_id":7}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSlotMissing(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns))
	mock.ExpectRollback()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{"time_slot_id":99}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUserOverlap(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns).
			AddRow(7, 3, start, end, repository.SlotStatusFree, now, now))
	mock.ExpectQuery("status = 'reserved'").
		WithArgs(uint64(3), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time"}))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(42), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{"time_slot_id":7}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already have a booking")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Booking a free slot that overlaps an already reserved slot on the same
// table is rejected, so reserved intervals stay pairwise disjoint even
// though overlapping free slots may coexist.
func TestCreateBookingOverlapsReservedSlot(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	// Slot 8 (19:00-21:00) is free, but slot 7 (18:00-20:00) on the same
	// table is already reserved.
	start := time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns).
			AddRow(8, 3, start, end, repository.SlotStatusFree, now, now))
	mock.ExpectQuery("status = 'reserved'").
		WithArgs(uint64(3), uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time"}).
			AddRow(7,
				time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC),
				time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC)))
	mock.ExpectRollback()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{"time_slot_id":8}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A deadlock on the first attempt is replayed and the second attempt
// wins the slot.
func TestCreateBookingRetriesDeadlock(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnError(errDeadlock)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns).
			AddRow(7, 3, start, end, repository.SlotStatusFree, now, now))
	mock.ExpectQuery("status = 'reserved'").
		WithArgs(uint64(3), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time"}))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(42), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = ?")).
		WithArgs(repository.SlotStatusReserved, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(uint64(42), uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "table_id", "time_slot_id", "created_at"}).
			AddRow(42, 3, 7, now))
	mock.ExpectCommit()

	c, rec := bookingCtx(t, http.MethodPost, "/v1/bookings", `{"time_slot_id":7}`, 42, RoleCustomer)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingNotOwner(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "table_id", "time_slot_id", "created_at"}).
			AddRow(11, 99, 3, 7, time.Now().UTC()))
	mock.ExpectRollback()

	c, rec := bookingCtx(t, http.MethodDelete, "/v1/bookings/11", "", 42, RoleCustomer)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingByStaff(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "table_id", "time_slot_id", "created_at"}).
			AddRow(11, 99, 3, 7, now))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingSlotColumns).
			AddRow(7, 3, start, start.Add(time.Hour), repository.SlotStatusReserved, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = ?")).
		WithArgs(repository.SlotStatusFree, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := bookingCtx(t, http.MethodDelete, "/v1/bookings/11", "", 5, RoleStaff)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingTwiceIsNotFound(t *testing.T) {
	mock, h, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "table_id", "time_slot_id", "created_at"}))
	mock.ExpectRollback()

	c, rec := bookingCtx(t, http.MethodDelete, "/v1/bookings/11", "", 42, RoleCustomer)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
