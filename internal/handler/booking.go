package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightbooking/internal/booking"
	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/sorting"
	"github.com/dharmasatrya/flightbooking/pkg/currency"
)

type BookingHandler struct {
	service   *booking.Service
	formatter currency.Formatter
}

func NewBookingHandler(s *booking.Service, f currency.Formatter) *BookingHandler {
	return &BookingHandler{
		service:   s,
		formatter: f,
	}
}

// OpenDialog chooses an itinerary of the current results for booking.
func (h *BookingHandler) OpenDialog(c echo.Context) error {
	var req models.SelectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	it, err := h.service.Select(req.ItineraryID)
	if err != nil {
		return h.bookingError(c, err)
	}

	return c.JSON(http.StatusOK, sorting.View(it, h.formatter))
}

func (h *BookingHandler) CloseDialog(c echo.Context) error {
	h.service.CloseDialog()
	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) CloseSuccess(c echo.Context) error {
	h.service.CloseSuccess()
	return c.NoContent(http.StatusNoContent)
}

// Book books the itinerary chosen in the booking dialog.
func (h *BookingHandler) Book(c echo.Context) error {
	var req models.BookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	outcome, err := h.service.BookChosen(c.Request().Context(), req.FirstName, req.LastName)
	if err != nil {
		return h.bookingError(c, err)
	}

	return c.JSON(http.StatusCreated, models.BookingResponse{
		Outcome: outcome,
		Value:   h.formatter.Format(outcome.Value),
	})
}

func (h *BookingHandler) bookingError(c echo.Context, err error) error {
	var fields models.ValidationErrors
	if errors.As(err, &fields) {
		return validationError(c, err)
	}

	var failure *models.BookingFailure
	switch {
	case errors.As(err, &failure):
		// The ledger's rejection reason is shown to the user as is.
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "booking_failed",
			Message: failure.Err.Error(),
			Code:    http.StatusUnprocessableEntity,
		})
	case errors.Is(err, models.ErrItineraryNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "itinerary_not_found",
			Message: err.Error(),
			Code:    http.StatusNotFound,
		})
	case errors.Is(err, models.ErrNoFlightChosen):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "no_flight_chosen",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "booking_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
}
