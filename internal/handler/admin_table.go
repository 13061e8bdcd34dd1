package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/repository"
)

type tableReq struct {
	TableNumber string `json:"table_number"`
	Capacity    uint32 `json:"capacity"`
}

// CreateTable handles POST /v1/restaurants/:id/tables. The table number
// must be unique within the restaurant and capacity strictly positive.
func (h *AdminHandler) CreateTable(c echo.Context) error {
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TableNumber = strings.TrimSpace(req.TableNumber)
	if req.TableNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number is required"})
	}
	if req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}

	ctx := c.Request().Context()
	if _, err := h.Restaurants.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	t := &repository.Table{
		RestaurantID: restaurantID,
		TableNumber:  req.TableNumber,
		Capacity:     req.Capacity,
	}
	if err := h.Tables.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrTableNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists in this restaurant"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create table failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTable handles PUT /v1/tables/:id.
func (h *AdminHandler) UpdateTable(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TableNumber = strings.TrimSpace(req.TableNumber)
	if req.TableNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number is required"})
	}
	if req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}

	ctx := c.Request().Context()
	if err := h.Tables.Update(ctx, id, req.TableNumber, req.Capacity); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case errors.Is(err, repository.ErrTableNumberExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists in this restaurant"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update table failed"})
		}
	}
	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load table failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTable handles DELETE /v1/tables/:id. Slots and bookings on the
// table cascade away.
func (h *AdminHandler) DeleteTable(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete table failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
