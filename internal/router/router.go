package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/roadside-assist/internal/handler"
)

// RegisterRoutes registers the health checks and the Prometheus scrape endpoint.
// None of them require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", h.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers signup/signin behind the stricter auth limiter and
// the profile endpoint behind authn.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limiter)
	g.POST("/signup", a.Signup)
	g.POST("/signin", a.Signin)

	e.GET("/api/me", a.Me, authn)
}

// RegisterPublic registers the unauthenticated workshop browse endpoints.
// cache sits in front of them; admin and review writes purge it.
func RegisterPublic(e *echo.Echo, w *handler.WorkshopHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/api/workshops", cache)
	g.GET("", w.Search)
	g.GET("/:id", w.Get)
	g.GET("/:id/reviews", w.Reviews)
}
