package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transitbook/journey-reservation/internal/inventory"
	"github.com/transitbook/journey-reservation/internal/model"
	"github.com/transitbook/journey-reservation/internal/repository"
)

// AdminHandler bundles repositories for administrators to manage journeys,
// departure slots, seat classes and pricing rules.
type AdminHandler struct {
	JourneyRepo *repository.JourneyRepo
	SlotRepo    *repository.SlotRepo
	ClassRepo   *repository.SeatClassRepo
	RuleRepo    *repository.RuleRepo
	BookingRepo *repository.BookingRepo
	Seats       *inventory.SeatInventory // invalidated when capacity changes
}

// NewAdminHandler constructs a new AdminHandler and panics if any dependency is nil
func NewAdminHandler(journeyRepo *repository.JourneyRepo, slotRepo *repository.SlotRepo, classRepo *repository.SeatClassRepo, ruleRepo *repository.RuleRepo, bookingRepo *repository.BookingRepo, seats *inventory.SeatInventory) *AdminHandler {
	if journeyRepo == nil || slotRepo == nil || classRepo == nil || ruleRepo == nil || bookingRepo == nil || seats == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{
		JourneyRepo: journeyRepo,
		SlotRepo:    slotRepo,
		ClassRepo:   classRepo,
		RuleRepo:    ruleRepo,
		BookingRepo: bookingRepo,
		Seats:       seats,
	}
}

// PurgeCancelledBookings deletes CANCELLED booking rows.  Cancelled
// bookings keep their seats out of the pool while the row exists, so
// this is an explicit maintenance action rather than a scheduled job.
func (h *AdminHandler) PurgeCancelledBookings(c echo.Context) error {
	n, err := h.BookingRepo.PurgeCancelled(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purge failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purged": n})
}

// ----- journeys -----

type createJourneyReq struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	BaseFare    float64 `json:"base_fare"`
}

type updateFareReq struct {
	BaseFare float64 `json:"base_fare"`
}

// CreateJourney registers a new origin/destination pair with its base fare.
func (h *AdminHandler) CreateJourney(c echo.Context) error {
	var req createJourneyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Origin == "" || req.Destination == "" || req.BaseFare <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin, destination and positive base_fare required"})
	}
	j := model.Journey{Origin: req.Origin, Destination: req.Destination, BaseFare: req.BaseFare}
	if err := h.JourneyRepo.Create(c.Request().Context(), &j); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create journey failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"journey": PublicJourney{ID: j.ID, Origin: j.Origin, Destination: j.Destination, BaseFare: j.BaseFare}})
}

// UpdateJourneyFare changes the base fare.  Existing bookings keep their
// price; only new quotes see the change.
func (h *AdminHandler) UpdateJourneyFare(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateFareReq
	if err := c.Bind(&req); err != nil || req.BaseFare <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "positive base_fare required"})
	}
	if err := h.JourneyRepo.UpdateBaseFare(c.Request().Context(), id, req.BaseFare); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "journey not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteJourney removes a journey that has no departure slots.
func (h *AdminHandler) DeleteJourney(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.JourneyRepo.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "journey not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "journey still has departure slots"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- departure slots -----

type createSlotReq struct {
	JourneyID uint64    `json:"journey_id"`
	DepartsAt time.Time `json:"departs_at"`
	ArrivesAt time.Time `json:"arrives_at"`
	Capacity  int       `json:"capacity"`
}

type updateCapacityReq struct {
	Capacity int `json:"capacity"`
}

// CreateSlot adds a departure slot to a journey.
func (h *AdminHandler) CreateSlot(c echo.Context) error {
	var req createSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.JourneyID == 0 || req.Capacity < 1 || !req.ArrivesAt.After(req.DepartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "journey_id, positive capacity and departs_at < arrives_at required"})
	}
	if _, err := h.JourneyRepo.GetByID(c.Request().Context(), req.JourneyID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "journey not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	s := model.Slot{JourneyID: req.JourneyID, DepartsAt: req.DepartsAt, ArrivesAt: req.ArrivesAt, Capacity: req.Capacity}
	if err := h.SlotRepo.Create(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slot failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"slot": PublicSlot{ID: s.ID, JourneyID: s.JourneyID, DepartsAt: s.DepartsAt, ArrivesAt: s.ArrivesAt, Capacity: s.Capacity}})
}

// UpdateSlotCapacity resizes a slot.  The in-memory inventory entry is
// invalidated so the next reservation reloads capacity and the reserved
// sum from the database.
func (h *AdminHandler) UpdateSlotCapacity(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateCapacityReq
	if err := c.Bind(&req); err != nil || req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "positive capacity required"})
	}
	if err := h.SlotRepo.UpdateCapacity(c.Request().Context(), id, req.Capacity); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Seats.Invalidate(id)
	return c.NoContent(http.StatusNoContent)
}

// DeleteSlot removes a departure slot that has no active bookings.
func (h *AdminHandler) DeleteSlot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.SlotRepo.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot still has active bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Seats.Invalidate(id)
	return c.NoContent(http.StatusNoContent)
}

// ----- seat classes -----

type createClassReq struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// CreateSeatClass adds a seat class with its fare multiplier.
func (h *AdminHandler) CreateSeatClass(c echo.Context) error {
	var req createClassReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Multiplier <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive multiplier required"})
	}
	sc := model.SeatClass{Name: req.Name, Multiplier: req.Multiplier}
	if err := h.ClassRepo.Create(c.Request().Context(), &sc); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seat class failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"seat_class": PublicSeatClass{ID: sc.ID, Name: sc.Name, Multiplier: sc.Multiplier}})
}

// DeleteSeatClass removes a seat class.
func (h *AdminHandler) DeleteSeatClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.ClassRepo.Delete(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- pricing rules -----

type createRuleReq struct {
	ThresholdDays int     `json:"threshold_days"`
	Percent       float64 `json:"percent"`
}

type ruleResp struct {
	ID            uint64  `json:"id"`
	ThresholdDays int     `json:"threshold_days"`
	Percent       float64 `json:"percent"`
}

// ListDiscountRules returns the discount tiers ordered by threshold.
func (h *AdminHandler) ListDiscountRules(c echo.Context) error {
	rules, err := h.RuleRepo.ListDiscounts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]ruleResp, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleResp{ID: r.ID, ThresholdDays: r.ThresholdDays, Percent: r.Percent})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateDiscountRule adds a discount tier.  Duplicate thresholds are
// rejected; two tiers at the same boundary would make the table ambiguous.
func (h *AdminHandler) CreateDiscountRule(c echo.Context) error {
	var req createRuleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ThresholdDays < 0 || req.Percent < 0 || req.Percent > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "threshold_days >= 0 and percent in [0,100] required"})
	}
	id, err := h.RuleRepo.CreateDiscount(c.Request().Context(), req.ThresholdDays, req.Percent)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a rule with this threshold already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create rule failed"})
	}
	return c.JSON(http.StatusCreated, ruleResp{ID: id, ThresholdDays: req.ThresholdDays, Percent: req.Percent})
}

// DeleteDiscountRule removes a discount tier.
func (h *AdminHandler) DeleteDiscountRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.RuleRepo.DeleteDiscount(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCancellationRules returns the cancellation charge tiers.
func (h *AdminHandler) ListCancellationRules(c echo.Context) error {
	rules, err := h.RuleRepo.ListCancellations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]ruleResp, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleResp{ID: r.ID, ThresholdDays: r.ThresholdDays, Percent: r.Percent})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateCancellationRule adds a cancellation charge tier.
func (h *AdminHandler) CreateCancellationRule(c echo.Context) error {
	var req createRuleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ThresholdDays < 0 || req.Percent < 0 || req.Percent > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "threshold_days >= 0 and percent in [0,100] required"})
	}
	id, err := h.RuleRepo.CreateCancellation(c.Request().Context(), req.ThresholdDays, req.Percent)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a rule with this threshold already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create rule failed"})
	}
	return c.JSON(http.StatusCreated, ruleResp{ID: id, ThresholdDays: req.ThresholdDays, Percent: req.Percent})
}

// DeleteCancellationRule removes a cancellation charge tier.
func (h *AdminHandler) DeleteCancellationRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.RuleRepo.DeleteCancellation(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
