package middleware

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// userID returns a string identity for rate-limit and cache keys: the
// "user_id" context value set by JWTAuth, or "guest" when the request
// is unauthenticated.
func userID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "guest"
    }
    switch id := v.(type) {
    case string:
        if id != "" {
            return id
        }
    case float64:
        return fmt.Sprintf("%.0f", id)
    case uint64:
        return fmt.Sprintf("%d", id)
    }
    return "guest"
}
