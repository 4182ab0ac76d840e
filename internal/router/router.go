package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing

	"github.com/joaomferraz/KeyCript/internal/handler"    // handlers implementing the endpoints
	"github.com/joaomferraz/KeyCript/internal/middleware" // JWT authentication middleware
)

// RegisterRoutes registers routes that do not require authentication:
// a health check for load balancers and the root greeting.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Welcome)
}

// RegisterAuth registers the account endpoints under /auth.  Neither route
// sits behind the identity middleware: register issues no token at all and
// login is how a token is obtained in the first place.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterCredentials registers the owner-scoped CRUD endpoints under
// /credentials.  The JWT middleware gates the whole group, so every
// handler can rely on a bound identity; extra middleware (e.g. the
// response cache) is applied after it so caching happens per user.
func RegisterCredentials(e *echo.Echo, h *handler.CredentialHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/credentials")
	g.Use(middleware.JWTAuth(jwtSecret))
	for _, mw := range extra {
		g.Use(mw)
	}
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
