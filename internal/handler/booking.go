package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/availability"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	qp "github.com/iliyamo/table-reservation/internal/service"
)

// bookingRetries bounds how often a booking or cancellation transaction
// is replayed after a deadlock or lock wait timeout.
const bookingRetries = 3

// BookingHandler owns the booking lifecycle: creation, cancellation and
// listing. Creation and cancellation each run as one transaction around
// a SELECT ... FOR UPDATE on the slot row, so concurrent attempts on the
// same slot serialize and the loser observes the winner's committed
// state.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Slots    *repository.TimeSlotRepo

	// PublishEvents gates the post-commit broker notifications. Tests
	// switch it off; the server leaves it on.
	PublishEvents bool
}

// NewBookingHandler constructs a BookingHandler and panics on nil deps.
func NewBookingHandler(b *repository.BookingRepo, s *repository.TimeSlotRepo) *BookingHandler {
	if b == nil || s == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: b, Slots: s, PublishEvents: true}
}

type createBookingReq struct {
	TimeSlotID uint64 `json:"time_slot_id"`
}

// CreateBooking handles POST /v1/bookings. Inside one transaction the
// target slot is locked, required to be free, checked against the
// table's reserved slots and against the user's other bookings for
// interval overlap, then flipped to reserved and bound to a new booking
// row. Deadlocks and lock wait timeouts replay the whole
// transaction a bounded number of times; every precondition failure is
// final on first sight.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil || req.TimeSlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_slot_id is required"})
	}

	ctx := c.Request().Context()
	var booking *repository.Booking

	for attempt := 1; ; attempt++ {
		booking, err = h.bookSlotTx(ctx, userID, req.TimeSlotID)
		if err == nil {
			break
		}
		if repository.IsRetryable(err) && attempt < bookingRetries {
			continue
		}
		switch {
		case errors.Is(err, repository.ErrSlotNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "time slot not found"})
		case errors.Is(err, repository.ErrSlotUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "time slot is not available"})
		case errors.Is(err, repository.ErrDoubleBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already have a booking in this time range"})
		case repository.IsRetryable(err):
			// Retries exhausted; to the client this is the same as
			// losing the slot race.
			return c.JSON(http.StatusConflict, echo.Map{"error": "time slot is not available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	h.publishCreated(booking.ID, userID)
	return c.JSON(http.StatusCreated, booking)
}

// bookSlotTx performs one attempt of the booking transaction.
func (h *BookingHandler) bookSlotTx(ctx context.Context, userID, slotID uint64) (*repository.Booking, error) {
	tx, err := h.Slots.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, err := h.Slots.GetForUpdateTx(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != repository.SlotStatusFree {
		return nil, repository.ErrSlotUnavailable
	}

	// A free slot may overlap other free slots, but reserving it must not
	// create two overlapping reserved slots on the table. Re-checked here
	// under the row lock, not just at slot creation, because the
	// overlapping slot may have been reserved since.
	reserved, err := h.Slots.ReservedIntervalsTx(ctx, tx, slot.TableID, slot.ID)
	if err != nil {
		return nil, err
	}
	for _, iv := range reserved {
		if availability.Overlaps(slot.StartTime, slot.EndTime, iv.Start, iv.End) {
			return nil, repository.ErrSlotUnavailable
		}
	}

	overlaps, err := h.Bookings.UserHasOverlappingTx(ctx, tx, userID, slot.StartTime, slot.EndTime)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, repository.ErrDoubleBooking
	}

	if err := h.Slots.SetStatusTx(ctx, tx, slot.ID, repository.SlotStatusReserved); err != nil {
		return nil, err
	}
	booking := &repository.Booking{UserID: userID, TableID: slot.TableID, TimeSlotID: slot.ID}
	if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return booking, nil
}

// CancelBooking handles DELETE /v1/bookings/:id. The booking owner or
// any staff member may cancel; everyone else gets 404 so the existence
// of other users' bookings is not observable. The slot returns to the
// free pool in the same transaction that removes the booking.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	staff := isStaff(c)

	ctx := c.Request().Context()
	var cancelled *repository.Booking
	var slot *repository.TimeSlot

	for attempt := 1; ; attempt++ {
		cancelled, slot, err = h.cancelBookingTx(ctx, bookingID, userID, staff)
		if err == nil {
			break
		}
		if repository.IsRetryable(err) && attempt < bookingRetries {
			continue
		}
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
	}

	h.publishCancelled(cancelled, slot, staff && cancelled.UserID != userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "time_slot_id": cancelled.TimeSlotID})
}

// cancelBookingTx performs one attempt of the cancellation transaction.
// A non-staff caller who does not own the booking sees the same error as
// a missing booking.
func (h *BookingHandler) cancelBookingTx(ctx context.Context, bookingID, userID uint64, staff bool) (*repository.Booking, *repository.TimeSlot, error) {
	tx, err := h.Slots.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetTx(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !staff && b.UserID != userID {
		return nil, nil, repository.ErrBookingNotFound
	}

	slot, err := h.Slots.GetForUpdateTx(ctx, tx, b.TimeSlotID)
	if err != nil {
		return nil, nil, err
	}
	if err := h.Slots.SetStatusTx(ctx, tx, slot.ID, repository.SlotStatusFree); err != nil {
		return nil, nil, err
	}
	if err := h.Bookings.DeleteTx(ctx, tx, b.ID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return b, slot, nil
}

// ListMyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// ListBookings handles GET /v1/bookings for staff, optionally filtered
// by ?table_id=.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	tableID, ok := queryID(c, "table_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
	}
	details, err := h.Bookings.ListAll(c.Request().Context(), tableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// GetBooking handles GET /v1/bookings/:id for the booking's owner.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	d, err := h.Bookings.GetDetailForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// publishCreated emits a booking.created event with full venue detail.
// The event is best effort: a broker outage is logged and forgotten.
func (h *BookingHandler) publishCreated(bookingID, userID uint64) {
	if !h.PublishEvents {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		d, err := h.Bookings.GetDetailForUser(ctx, bookingID, userID)
		if err != nil {
			log.Printf("booking-events: load detail for booking %d failed: %v", bookingID, err)
			return
		}
		ev := queue.BookingCreatedEvent{
			BookingID:      d.ID,
			UserID:         d.UserID,
			RestaurantID:   d.RestaurantID,
			RestaurantName: d.RestaurantName,
			TableID:        d.TableID,
			TableNumber:    d.TableNumber,
			TimeSlotID:     d.TimeSlotID,
			StartsAt:       d.StartTime.UTC().Format(time.RFC3339),
			EndsAt:         d.EndTime.UTC().Format(time.RFC3339),
			CreatedAt:      d.CreatedAt.UTC().Format(time.RFC3339),
		}
		_ = qp.PublishBookingCreated(ctx, ev)
	}()
}

func (h *BookingHandler) publishCancelled(b *repository.Booking, slot *repository.TimeSlot, byStaff bool) {
	if !h.PublishEvents {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ev := queue.BookingCancelledEvent{
			BookingID:   b.ID,
			UserID:      b.UserID,
			TableID:     b.TableID,
			TimeSlotID:  b.TimeSlotID,
			StartsAt:    slot.StartTime.UTC().Format(time.RFC3339),
			EndsAt:      slot.EndTime.UTC().Format(time.RFC3339),
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
			ByStaff:     byStaff,
		}
		_ = qp.PublishBookingCancelled(ctx, ev)
	}()
}
