package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Role claim values carried in access tokens. STAFF covers the admin
// surface and sees past slots; CUSTOMER is the default for registrations.
const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
)

// getUserID extracts the authenticated user's id placed in context by the
// JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isStaff reports whether the current request carries the STAFF role.
func isStaff(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == RoleStaff
}

// pathID parses the named path parameter as a positive integer id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter; absent means 0.
func queryID(c echo.Context, name string) (uint64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryDate parses an optional ?date=YYYY-MM-DD parameter as a UTC
// calendar day. A present but malformed value is a client error.
func queryDate(c echo.Context) (*time.Time, bool) {
	raw := c.QueryParam("date")
	if raw == "" {
		return nil, true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, false
	}
	return &d, true
}
