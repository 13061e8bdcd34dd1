package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/availability"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// slotReq deliberately has no status field: slots are always created
// free and only the booking flow flips them.
type slotReq struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func slotRuleStatus(err error) (int, string) {
	switch {
	case errors.Is(err, availability.ErrInvalidRange):
		return http.StatusBadRequest, "start_time must be before end_time"
	case errors.Is(err, availability.ErrTooShort):
		return http.StatusBadRequest, "slot must span at least one hour"
	case errors.Is(err, availability.ErrOverlapConflict):
		return http.StatusConflict, "slot overlaps a reserved slot on this table"
	}
	return http.StatusInternalServerError, "slot validation failed"
}

// CreateSlot handles POST /v1/tables/:id/slots. The interval is checked
// against the table's reserved slots before anything is written;
// overlapping an existing *free* slot is allowed so staff can offer
// alternative durations over one window.
func (h *AdminHandler) CreateSlot(c echo.Context) error {
	tableID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req slotReq
	if err := c.Bind(&req); err != nil || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time are required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Tables.GetByID(ctx, tableID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if err := availability.ValidateInterval(start, end); err != nil {
		status, msg := slotRuleStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}
	reserved, err := h.Slots.ReservedIntervals(ctx, tableID, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	if err := availability.CheckConflicts(start, end, reserved); err != nil {
		status, msg := slotRuleStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}

	s := &repository.TimeSlot{TableID: tableID, StartTime: start, EndTime: end}
	if err := h.Slots.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slot failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateSlot handles PUT /v1/slots/:id. The slot being edited is excluded
// from the conflict scan so moving it within its own window succeeds.
// Reserved slots cannot be rescheduled from here; cancel the booking
// first.
func (h *AdminHandler) UpdateSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var req slotReq
	if err := c.Bind(&req); err != nil || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time are required"})
	}

	ctx := c.Request().Context()
	s, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if s.Status != repository.SlotStatusFree {
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is reserved; cancel its booking first"})
	}

	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if err := availability.ValidateInterval(start, end); err != nil {
		status, msg := slotRuleStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}
	reserved, err := h.Slots.ReservedIntervals(ctx, s.TableID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	if err := availability.CheckConflicts(start, end, reserved); err != nil {
		status, msg := slotRuleStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}

	if err := h.Slots.UpdateInterval(ctx, id, start, end); err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update slot failed"})
	}
	s, err = h.Slots.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load slot failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteSlot handles DELETE /v1/slots/:id. Deleting a reserved slot is a
// staff override: the booking on it cascades away.
func (h *AdminHandler) DeleteSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	if err := h.Slots.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete slot failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
