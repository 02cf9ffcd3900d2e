package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/messagely/messaging-api/internal/handler"
	"github.com/messagely/messaging-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance. Currently it exposes only a health
// check, used by load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.
// Unauthenticated operations live under /v1/auth; the protected
// /v1/me endpoint sits behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Register, login, refresh and logout do not require an existing
	// session; each handler is responsible for issuing or exchanging
	// tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterUsers registers the user directory endpoints. Everything
// requires a valid access token; the user listing additionally goes
// through the Redis response cache when one is configured.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/users")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", u.List, cache)
	g.GET("/:username", u.Get)
	// A user may only list their own messages; the handlers enforce
	// that the path username matches the token's subject.
	g.GET("/:username/messages/from", u.MessagesFrom)
	g.GET("/:username/messages/to", u.MessagesTo)
}

// RegisterMessages registers the message exchange endpoints behind
// JWT authentication. Party checks happen inside the handlers, where
// the resolved message is available.
func RegisterMessages(e *echo.Echo, m *handler.MessageHandler, jwtSecret string) {
	g := e.Group("/v1/messages")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("/:id", m.Get)
	g.POST("", m.Create)
	g.POST("/:id/read", m.MarkRead)
}
