// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse journeys, departure slots and seat classes
// without requiring authentication. Sensitive fields (timestamps, etc.) are
// filtered from responses.

package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transitbook/journey-reservation/internal/inventory"
	"github.com/transitbook/journey-reservation/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
	JourneyRepo *repository.JourneyRepo // provides access to journey data
	SlotRepo    *repository.SlotRepo    // provides access to departure slot data
	ClassRepo   *repository.SeatClassRepo
	Seats       *inventory.SeatInventory // answers live availability questions
}

// PublicJourney represents a journey exposed via the public API. It contains
// only safe fields.
type PublicJourney struct {
	ID          uint64  `json:"id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	BaseFare    float64 `json:"base_fare"`
}

// PublicSlot represents a departure slot exposed via the public API.
type PublicSlot struct {
	ID        uint64    `json:"id"`
	JourneyID uint64    `json:"journey_id"`
	DepartsAt time.Time `json:"departs_at"`
	ArrivesAt time.Time `json:"arrives_at"`
	Capacity  int       `json:"capacity"`
}

// PublicSeatClass represents a seat class with its fare multiplier.
type PublicSeatClass struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// GetJourneys returns a list of all journeys accessible to unauthenticated users.
// Response JSON contains an "items" array of PublicJourney.
func (h *PublicHandler) GetJourneys(c echo.Context) error {
	ctx := c.Request().Context()
	journeys, err := h.JourneyRepo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicJourney, 0, len(journeys))
	for _, j := range journeys {
		out = append(out, PublicJourney{ID: j.ID, Origin: j.Origin, Destination: j.Destination, BaseFare: j.BaseFare})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetJourney returns a single journey by ID.
func (h *PublicHandler) GetJourney(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	j, err := h.JourneyRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "journey not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, PublicJourney{ID: j.ID, Origin: j.Origin, Destination: j.Destination, BaseFare: j.BaseFare})
}

// GetSlotsByJourney lists departure slots of a journey for unauthenticated
// users. It validates the journey exists, then returns only non-sensitive fields.
func (h *PublicHandler) GetSlotsByJourney(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	// ensure journey exists
	if _, err := h.JourneyRepo.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "journey not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	slots, err := h.SlotRepo.ListByJourney(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, PublicSlot{ID: s.ID, JourneyID: s.JourneyID, DepartsAt: s.DepartsAt, ArrivesAt: s.ArrivesAt, Capacity: s.Capacity})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetSlotAvailability reports how many seats remain bookable on a slot.
// The answer comes from the in-memory inventory, so it reflects holds
// made in this instance immediately.
func (h *PublicHandler) GetSlotAvailability(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	slot, err := h.SlotRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	free, err := h.Seats.Available(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"slot_id":   slot.ID,
		"capacity":  slot.Capacity,
		"available": free,
	})
}

// GetSeatClasses lists the seat classes and their fare multipliers.
func (h *PublicHandler) GetSeatClasses(c echo.Context) error {
	ctx := c.Request().Context()
	classes, err := h.ClassRepo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicSeatClass, 0, len(classes))
	for _, sc := range classes {
		out = append(out, PublicSeatClass{ID: sc.ID, Name: sc.Name, Multiplier: sc.Multiplier})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
