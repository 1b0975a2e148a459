package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transitbook/journey-reservation/internal/handler"
	"github.com/transitbook/journey-reservation/internal/middleware"
)

// RegisterAdmin registers administrative endpoints under /v1/admin.  All
// routes require a valid JWT and the ADMIN role.  Administrators manage
// journeys, departure slots, seat classes and the pricing rule tables.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Journeys.
	g.POST("/journeys", h.CreateJourney)
	g.PATCH("/journeys/:id/fare", h.UpdateJourneyFare)
	g.DELETE("/journeys/:id", h.DeleteJourney)

	// Departure slots.
	g.POST("/slots", h.CreateSlot)
	g.PATCH("/slots/:id/capacity", h.UpdateSlotCapacity)
	g.DELETE("/slots/:id", h.DeleteSlot)

	// Seat classes.
	g.POST("/seat-classes", h.CreateSeatClass)
	g.DELETE("/seat-classes/:id", h.DeleteSeatClass)

	// Discount tiers.
	g.GET("/discount-rules", h.ListDiscountRules)
	g.POST("/discount-rules", h.CreateDiscountRule)
	g.DELETE("/discount-rules/:id", h.DeleteDiscountRule)

	// Maintenance.
	g.POST("/bookings/purge-cancelled", h.PurgeCancelledBookings)

	// Cancellation charge tiers.
	g.GET("/cancellation-rules", h.ListCancellationRules)
	g.POST("/cancellation-rules", h.CreateCancellationRule)
	g.DELETE("/cancellation-rules/:id", h.DeleteCancellationRule)
}
