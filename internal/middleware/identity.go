package middleware

// identity.go holds the helpers that read the authenticated caller back out
// of the Echo context.  Handlers use Actor; the rate limiter and the request
// logger use the string form.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// Actor returns the caller stored by JWTAuth.  ok is false on public routes
// or when the context values have an unexpected type.
func Actor(c echo.Context) (model.Actor, bool) {
	id, ok := c.Get(ctxUserID).(int64)
	if !ok || id <= 0 {
		return model.Actor{}, false
	}
	role, ok := c.Get(ctxRole).(string)
	if !ok {
		return model.Actor{}, false
	}
	r := model.Role(role)
	if !r.Valid() {
		return model.Actor{}, false
	}
	return model.Actor{ID: id, Role: r}, true
}

// userID returns the caller's id as a string, or "anon" on public routes.
func userID(c echo.Context) string {
	if id, ok := c.Get(ctxUserID).(int64); ok && id > 0 {
		return strconv.FormatInt(id, 10)
	}
	return "anon"
}
