package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const UserIDKey = "user_id"

// UserIdentity resolves the platform user id for API calls. The chat
// transport is the real authenticator; it forwards the id it verified in
// the X-User-Id header.
func UserIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-User-Id")
			if raw == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing X-User-Id header")
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid X-User-Id header")
			}
			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// UserID reads the id set by UserIdentity.
func UserID(c echo.Context) int64 {
	userID, _ := c.Get(UserIDKey).(int64)
	return userID
}
