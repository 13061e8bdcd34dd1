package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// RegisterAdmin registers the STAFF-only management endpoints under /v1:
// restaurant, table and slot administration plus the global booking
// listing. Reads on these entities are public and live on the browse
// router.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleStaff),
	)

	// ---- Restaurants ----
	g.POST("/restaurants", a.CreateRestaurant)
	g.PUT("/restaurants/:id", a.UpdateRestaurant)
	g.DELETE("/restaurants/:id", a.DeleteRestaurant)

	// ---- Tables ----
	g.POST("/restaurants/:id/tables", a.CreateTable)
	g.PUT("/tables/:id", a.UpdateTable)
	g.DELETE("/tables/:id", a.DeleteTable)

	// ---- Time slots ----
	g.POST("/tables/:id/slots", a.CreateSlot)
	g.PUT("/slots/:id", a.UpdateSlot)
	g.DELETE("/slots/:id", a.DeleteSlot)

	// ---- Bookings (staff oversight) ----
	g.GET("/bookings", b.ListBookings)
}
