package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// RegisterBooking registers the booking endpoints under /v1. Both roles
// may book and cancel; the staff-only listing is registered separately
// in RegisterAdmin. rateMW, when non-nil, is the Redis token bucket
// protecting the booking write path.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rateMW echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleCustomer, handler.RoleStaff),
	}
	if rateMW != nil {
		mws = append(mws, rateMW)
	}
	g := e.Group("/v1", mws...)

	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.GET("/my-bookings", h.ListMyBookings)
}
