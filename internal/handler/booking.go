package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transitbook/journey-reservation/internal/booking"
	"github.com/transitbook/journey-reservation/internal/model"
)

// BookingHandler exposes the customer-facing booking lifecycle over HTTP.
// All routes require an authenticated CUSTOMER; ownership of the booking
// is enforced by the service layer.
type BookingHandler struct {
	Svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

const travelDateLayout = "2006-01-02"

type createBookingReq struct {
	JourneyID   uint64 `json:"journey_id"`
	SlotID      uint64 `json:"slot_id"`
	SeatClassID uint64 `json:"seat_class_id"`
	TravelDate  string `json:"travel_date"` // YYYY-MM-DD
	Seats       int    `json:"seats"`
	PayNow      bool   `json:"pay_now"`
}

type rescheduleReq struct {
	TravelDate  string `json:"travel_date"` // YYYY-MM-DD
	SeatClassID uint64 `json:"seat_class_id"`
}

type bookingResp struct {
	ID          uint64  `json:"id"`
	JourneyID   uint64  `json:"journey_id"`
	SlotID      uint64  `json:"slot_id"`
	SeatClassID uint64  `json:"seat_class_id"`
	TravelDate  string  `json:"travel_date"`
	Seats       int     `json:"seats"`
	FinalPrice  float64 `json:"final_price"`
	Status      string  `json:"status"`
}

type quotePart struct {
	Gross           float64 `json:"gross"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	Total           float64 `json:"total"`
	DaysBefore      int     `json:"days_before_travel"`
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID:          b.ID,
		JourneyID:   b.JourneyID,
		SlotID:      b.SlotID,
		SeatClassID: b.SeatClassID,
		TravelDate:  b.TravelDate.Format(travelDateLayout),
		Seats:       b.Seats,
		FinalPrice:  b.FinalPrice,
		Status:      b.Status,
	}
}

// respondBookingErr translates service failures into HTTP responses.
func respondBookingErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrSeatsUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
	case errors.Is(err, booking.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation not allowed in current booking state"})
	case errors.Is(err, booking.ErrBookingWindowExceeded):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "travel date is beyond the booking window"})
	case errors.Is(err, booking.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Create reserves seats and persists a new booking.  The quoted price is
// fixed at this point and does not drift as the travel date approaches.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	travelDate, err := time.Parse(travelDateLayout, req.TravelDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}

	b, quote, err := h.Svc.Create(c.Request().Context(), booking.CreateParams{
		UserID:      uid,
		JourneyID:   req.JourneyID,
		SlotID:      req.SlotID,
		SeatClassID: req.SeatClassID,
		TravelDate:  travelDate,
		Seats:       req.Seats,
		PayNow:      req.PayNow,
	})
	if err != nil {
		return respondBookingErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking": toBookingResp(b),
		"quote": quotePart{
			Gross:           quote.Gross,
			DiscountPercent: quote.DiscountPercent,
			DiscountAmount:  quote.DiscountAmount,
			Total:           quote.Total,
			DaysBefore:      quote.DaysBefore,
		},
	})
}

// Checkout moves a cart booking to PAID.
func (h *BookingHandler) Checkout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Svc.Checkout(c.Request().Context(), id, uid)
	if err != nil {
		return respondBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingResp(b)})
}

// Abandon discards a cart booking and returns its seats to the pool.
func (h *BookingHandler) Abandon(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.Abandon(c.Request().Context(), id, uid); err != nil {
		return respondBookingErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reschedule moves a paid booking to a new travel date and/or seat class,
// repricing it with the discount tiers of the new date.
func (h *BookingHandler) Reschedule(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	travelDate, err := time.Parse(travelDateLayout, req.TravelDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}
	b, quote, err := h.Svc.Reschedule(c.Request().Context(), id, uid, travelDate, req.SeatClassID)
	if err != nil {
		return respondBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking": toBookingResp(b),
		"quote": quotePart{
			Gross:           quote.Gross,
			DiscountPercent: quote.DiscountPercent,
			DiscountAmount:  quote.DiscountAmount,
			Total:           quote.Total,
			DaysBefore:      quote.DaysBefore,
		},
	})
}

// Cancel cancels an active booking and reports the retained charge.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Svc.Cancel(c.Request().Context(), id, uid)
	if err != nil {
		return respondBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":        toBookingResp(res.Booking),
		"charge_percent": res.Percent,
		"charge_amount":  res.Amount,
	})
}

// Get returns a single booking owned by the caller.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Svc.GetForUser(c.Request().Context(), id, uid)
	if err != nil {
		return respondBookingErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingResp(b)})
}

// List returns all bookings of the caller, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Svc.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return respondBookingErr(c, err)
	}
	out := make([]bookingResp, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
