// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently only the health check lives here.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints. Register, login and the two
// refresh flows are open; logout and me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse and availability
// endpoints. OptionalJWT lets authenticated staff use the staff-only
// query options on the same URLs; cacheMW, when non-nil, is the Redis
// response cache applied to these read-only routes.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{middleware.OptionalJWT(jwtSecret)}
	if cacheMW != nil {
		mws = append(mws, cacheMW)
	}
	g := e.Group("/v1", mws...)
	g.GET("/restaurants", p.ListRestaurants)
	g.GET("/restaurants/:id", p.GetRestaurant)
	g.GET("/restaurants/:id/tables", p.ListTables)
	g.GET("/tables/available", p.AvailableTables)
	g.GET("/slots/available", p.AvailableSlots)
}
