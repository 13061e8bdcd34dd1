package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/repository"
)

// AdminHandler groups the repositories behind the STAFF-only management
// surface: restaurants, their tables and the time slots offered on those
// tables. JWT auth and role checks happen in middleware; these methods
// only validate input and delegate.
type AdminHandler struct {
	Restaurants *repository.RestaurantRepo
	Tables      *repository.TableRepo
	Slots       *repository.TimeSlotRepo
}

// NewAdminHandler constructs an AdminHandler and panics on nil deps.
func NewAdminHandler(r *repository.RestaurantRepo, t *repository.TableRepo, s *repository.TimeSlotRepo) *AdminHandler {
	if r == nil || t == nil || s == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Restaurants: r, Tables: t, Slots: s}
}

type restaurantReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// CreateRestaurant handles POST /v1/restaurants.
func (h *AdminHandler) CreateRestaurant(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	rest := &repository.Restaurant{Name: req.Name, Address: strings.TrimSpace(req.Address)}
	if err := h.Restaurants.Create(c.Request().Context(), rest); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create restaurant failed"})
	}
	return c.JSON(http.StatusCreated, rest)
}

// UpdateRestaurant handles PUT /v1/restaurants/:id.
func (h *AdminHandler) UpdateRestaurant(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx := c.Request().Context()
	if err := h.Restaurants.Update(ctx, id, req.Name, strings.TrimSpace(req.Address)); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update restaurant failed"})
	}
	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load restaurant failed"})
	}
	return c.JSON(http.StatusOK, rest)
}

// DeleteRestaurant handles DELETE /v1/restaurants/:id. Tables, slots and
// bookings under the restaurant go with it via ON DELETE CASCADE.
func (h *AdminHandler) DeleteRestaurant(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	if err := h.Restaurants.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete restaurant failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
