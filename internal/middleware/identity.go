package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the authenticated user id as a string for rate-limit keys,
// or "anon" before JWTAuth ran.
func userID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(uint64); ok && v != 0 {
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
