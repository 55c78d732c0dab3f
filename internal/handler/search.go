package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/search"
	"github.com/dharmasatrya/flightbooking/internal/session"
	"github.com/dharmasatrya/flightbooking/internal/sorting"
	"github.com/dharmasatrya/flightbooking/pkg/currency"
)

type SearchHandler struct {
	orchestrator *search.Orchestrator
	store        *session.Store
	formatter    currency.Formatter
	waitTimeout  time.Duration
	logger       *slog.Logger
}

func NewSearchHandler(o *search.Orchestrator, store *session.Store, f currency.Formatter, waitTimeout time.Duration, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{
		orchestrator: o,
		store:        store,
		formatter:    f,
		waitTimeout:  waitTimeout,
		logger:       logger,
	}
}

// Search starts a new session and waits for it to be processed. If the
// wait times out the partial session is returned with 202 and the client
// polls Results.
func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	criteria, err := req.ToCriteria()
	if err != nil {
		return validationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.waitTimeout)
	defer cancel()

	state, err := h.orchestrator.SearchAndWait(ctx, criteria)
	status := http.StatusOK
	if err != nil {
		var queryFailure *models.QueryFailure
		switch {
		case errors.As(err, &queryFailure):
			return c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "query_failed",
				Message: err.Error(),
				Code:    http.StatusBadGateway,
			})
		case errors.Is(err, models.ErrSuperseded):
			h.logger.Info("search superseded while waiting", "current_session_id", state.SessionID)
			return c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "search_superseded",
				Message: err.Error(),
				Code:    http.StatusConflict,
			})
		case errors.Is(err, context.DeadlineExceeded):
			h.logger.Info("search still resolving, returning partial results", "session_id", state.SessionID)
			status = http.StatusAccepted
		default:
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "search_error",
				Message: "Failed to search flights: " + err.Error(),
				Code:    http.StatusInternalServerError,
			})
		}
	}

	resp := h.view(state)
	resp.Metadata.SearchTimeMs = time.Since(startTime).Milliseconds()
	return c.JSON(status, resp)
}

// Results returns the current session. A sort query parameter changes the
// active sort key, which persists across searches.
func (h *SearchHandler) Results(c echo.Context) error {
	if key := c.QueryParam("sort"); key != "" {
		h.store.Dispatch(session.SortChanged{Key: sorting.ParseKey(key)})
	}

	state := h.store.Snapshot()
	if state.SessionID == "" {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "no_session",
			Message: models.ErrNoActiveSession.Error(),
			Code:    http.StatusNotFound,
		})
	}

	return c.JSON(http.StatusOK, h.view(state))
}

func (h *SearchHandler) State(c echo.Context) error {
	state := h.store.Snapshot()

	resp := models.StateResponse{
		SessionID:         state.SessionID,
		Ready:             state.Ready,
		Sort:              string(state.Sort),
		TotalResults:      len(state.Itineraries),
		BookDialogOpen:    state.BookDialogOpen,
		SuccessDialogOpen: state.SuccessDialogOpen,
		LastBooking:       state.LastBooking,
	}
	if state.FlightChosen != nil {
		view := sorting.View(*state.FlightChosen, h.formatter)
		resp.FlightChosen = &view
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *SearchHandler) view(state session.State) models.SearchResponse {
	itineraries := sorting.Present(state.Itineraries, state.Sort, h.formatter)

	resp := models.SearchResponse{
		SessionID: state.SessionID,
		Criteria:  state.Criteria,
		Ready:     state.Ready,
		Sort:      string(state.Sort),
		Metadata: models.SearchMetadata{
			TotalResults: len(itineraries),
			Pending:      state.Pending,
			Failed:       state.Failed,
		},
		Itineraries: itineraries,
	}
	if state.Ready && len(itineraries) == 0 {
		resp.Message = models.MsgNoResults
	}
	return resp
}

func validationError(c echo.Context, err error) error {
	resp := models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	}
	var fields models.ValidationErrors
	if errors.As(err, &fields) {
		resp.Fields = fields
	}
	return c.JSON(http.StatusBadRequest, resp)
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
