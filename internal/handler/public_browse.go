package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse and availability
// endpoints. Responses are read-only snapshots: the booking transaction
// re-checks everything under lock, so a listing being a little stale can
// never cause a wrong booking.
type PublicHandler struct {
	Restaurants *repository.RestaurantRepo
	Tables      *repository.TableRepo
	Slots       *repository.TimeSlotRepo
}

// NewPublicHandler constructs a PublicHandler and panics on nil deps.
func NewPublicHandler(r *repository.RestaurantRepo, t *repository.TableRepo, s *repository.TimeSlotRepo) *PublicHandler {
	if r == nil || t == nil || s == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Restaurants: r, Tables: t, Slots: s}
}

// ListRestaurants handles GET /v1/restaurants with optional ?name=
// substring search.
func (h *PublicHandler) ListRestaurants(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	list, err := h.Restaurants.List(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurants": list})
}

// GetRestaurant handles GET /v1/restaurants/:id.
func (h *PublicHandler) GetRestaurant(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	rest, err := h.Restaurants.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, rest)
}

// ListTables handles GET /v1/restaurants/:id/tables with optional
// ?capacity_min= filter.
func (h *PublicHandler) ListTables(c echo.Context) error {
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	capacityMin, ok := queryUint32(c, "capacity_min")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid capacity_min"})
	}

	ctx := c.Request().Context()
	if _, err := h.Restaurants.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	tables, err := h.Tables.ListByRestaurant(ctx, restaurantID, capacityMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// AvailableTables handles GET /v1/tables/available. A table qualifies
// when it has at least one free slot, optionally on the given UTC
// calendar ?date= and at the given ?restaurant_id= / ?capacity_min=.
func (h *PublicHandler) AvailableTables(c echo.Context) error {
	restaurantID, ok := queryID(c, "restaurant_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant_id"})
	}
	capacityMin, ok := queryUint32(c, "capacity_min")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid capacity_min"})
	}
	date, ok := queryDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	tables, err := h.Tables.ListAvailable(c.Request().Context(), repository.AvailableTablesQuery{
		RestaurantID: restaurantID,
		CapacityMin:  capacityMin,
		Date:         date,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// AvailableSlots handles GET /v1/slots/available. Non-staff callers only
// ever see free slots starting in the future; authenticated staff may
// pass ?include_past=true to inspect history.
func (h *PublicHandler) AvailableSlots(c echo.Context) error {
	restaurantID, ok := queryID(c, "restaurant_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant_id"})
	}
	tableID, ok := queryID(c, "table_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
	}
	date, ok := queryDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	includePast := isStaff(c) && c.QueryParam("include_past") == "true"

	slots, err := h.Slots.ListAvailable(c.Request().Context(), repository.AvailableSlotsQuery{
		RestaurantID: restaurantID,
		TableID:      tableID,
		Date:         date,
		IncludePast:  includePast,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// queryUint32 parses an optional small numeric query parameter.
func queryUint32(c echo.Context, name string) (uint32, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint32(n), true
}
