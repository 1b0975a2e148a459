package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transitbook/journey-reservation/internal/handler"
	"github.com/transitbook/journey-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can create
// cart bookings, pay for them, abandon them, reschedule or cancel paid
// bookings and list their own bookings.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Creates a CART booking, or a PAID one when pay_now is set.
	g.POST("/bookings", h.Create)
	g.GET("/my-bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	// CART -> PAID.
	g.POST("/bookings/:id/checkout", h.Checkout)
	// Discards a CART booking and frees its seats.
	g.DELETE("/bookings/:id", h.Abandon)
	// Moves a PAID booking to a new date and/or seat class at the new
	// date's price.
	g.POST("/bookings/:id/reschedule", h.Reschedule)
	// Cancels an active booking; the response reports the retained charge.
	g.POST("/bookings/:id/cancel", h.Cancel)
}
