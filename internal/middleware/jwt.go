package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
)

// Context keys set by JWTAuth.  Handlers read them through Actor.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// TokenParser verifies a raw bearer token and returns the user id and role
// it carries.  *utils.TokenIssuer satisfies it.
type TokenParser interface {
	Parse(raw string) (int64, string, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.  The
// parser must share the secret used when issuing tokens.  This middleware
// wraps every protected route so that handlers can access the authenticated
// user via `c.Get("user_id")` (an int64) and `c.Get("role")` (a string).
func JWTAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			// Anything else means the caller is not authenticated.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// Signature, algorithm (HS256 only) and expiry are all checked
			// by the parser.  Every failure looks the same to the client.
			id, role, err := tokens.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ctxUserID, id)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// Chain runs mws in order as a single middleware.  Routes use it to put the
// per-user limiter behind JWTAuth, where the caller is known.
func Chain(mws ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
