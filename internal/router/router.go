package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/transitbook/journey-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/transitbook/journey-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login
	// and the two refresh variants.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication; the handler accepts a
	// refresh token in the body or a bearer token in the header.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  Both roles may call /v1/me.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)

	// Alias kept so clients can call either /v1/auth/logout or /v1/logout.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler returns sanitized data for journeys,
// departure slots and seat classes.  These routes apply no JWT or role
// middleware and are intended for guest users.  The optional middleware
// arguments (rate limiting, response caching) are applied to the group.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// List all journeys.
	g.GET("/journeys", p.GetJourneys)
	// Journey details by id.
	g.GET("/journeys/:id", p.GetJourney)
	// Departure slots of a journey.
	g.GET("/journeys/:id/slots", p.GetSlotsByJourney)
	// Live remaining-seat count for a slot.  Guests can check availability
	// before registering.
	g.GET("/slots/:id/availability", p.GetSlotAvailability)
	// Seat classes and their fare multipliers.
	g.GET("/seat-classes", p.GetSeatClasses)
}
