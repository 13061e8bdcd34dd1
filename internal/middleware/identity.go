package middleware

// identity.go holds helpers shared by the rate limiter and cache for
// identifying the caller. Authenticated requests are keyed by the user id
// JWTAuth stored in context; everything else is lumped under "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

func currentUserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(uint64); ok && v > 0 {
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
