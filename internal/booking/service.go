package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/dharmasatrya/flightbooking/internal/ledger"
	"github.com/dharmasatrya/flightbooking/internal/metrics"
	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/notify"
	"github.com/dharmasatrya/flightbooking/internal/ratelimit"
	"github.com/dharmasatrya/flightbooking/internal/session"
)

type Config struct {
	Limiter *ratelimit.CallLimiter
	Logger  *slog.Logger
	// NotifyTimeout bounds the post-booking notification.
	NotifyTimeout time.Duration
}

// Service books itineraries from the active search session and drives the
// booking and success dialogs.
type Service struct {
	ledger   ledger.Ledger
	store    *session.Store
	notifier notify.Notifier
	config   Config
	logger   *slog.Logger
}

func NewService(l ledger.Ledger, store *session.Store, n notify.Notifier, config Config) *Service {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = notify.NewLogNotifier(logger)
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = 10 * time.Second
	}

	return &Service{
		ledger:   l,
		store:    store,
		notifier: n,
		config:   config,
		logger:   logger,
	}
}

// Select opens the booking dialog for an itinerary of the current results.
func (s *Service) Select(itineraryID string) (models.Itinerary, error) {
	it, ok := s.store.Find(itineraryID)
	if !ok {
		return models.Itinerary{}, models.ErrItineraryNotFound
	}
	s.store.Dispatch(session.BookingDialogOpened{Itinerary: it})
	return it, nil
}

func (s *Service) CloseDialog() {
	s.store.Dispatch(session.BookingDialogClosed{})
}

func (s *Service) CloseSuccess() {
	s.store.Dispatch(session.SuccessDialogClosed{})
}

// BookChosen books the itinerary currently shown in the booking dialog.
func (s *Service) BookChosen(ctx context.Context, firstName, lastName string) (models.TransactionOutcome, error) {
	state := s.store.Snapshot()
	if !state.BookDialogOpen || state.FlightChosen == nil {
		return models.TransactionOutcome{}, models.ErrNoFlightChosen
	}

	return s.Book(ctx, models.BookingRequest{
		Itinerary: *state.FlightChosen,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// Book submits one paid booking transaction for the itinerary. The value
// sent equals the itinerary's total price. On failure the ledger's error is
// returned wrapped in a BookingFailure and no state changes.
func (s *Service) Book(ctx context.Context, req models.BookingRequest) (models.TransactionOutcome, error) {
	if err := req.Validate(); err != nil {
		return models.TransactionOutcome{}, err
	}

	ids := req.Itinerary.TicketIDs()

	if err := s.config.Limiter.Wait(ctx, ratelimit.CallBooking); err != nil {
		metrics.Bookings.WithLabelValues("failed").Inc()
		return models.TransactionOutcome{}, &models.BookingFailure{Err: err}
	}

	start := time.Now()
	outcome, err := s.ledger.BookFlight(ctx, ids, req.FirstName, req.LastName, req.Itinerary.PriceTotal)
	metrics.ObserveLedgerCall("bookFlight", start, err)
	if err != nil {
		metrics.Bookings.WithLabelValues("failed").Inc()
		s.logger.Warn("booking rejected",
			"itinerary_id", req.Itinerary.ID(),
			"ticket_ids", ids,
			"value", req.Itinerary.PriceTotal,
			"error", err,
		)
		return models.TransactionOutcome{}, &models.BookingFailure{Err: err}
	}

	metrics.Bookings.WithLabelValues("succeeded").Inc()
	s.store.Dispatch(session.BookingSucceeded{Outcome: outcome})
	s.logger.Info("booking succeeded",
		"itinerary_id", req.Itinerary.ID(),
		"booking_id", outcome.BookingID,
		"tx_hash", outcome.TxHash,
	)

	go s.notify(context.WithoutCancel(ctx), outcome)

	return outcome, nil
}

func (s *Service) notify(ctx context.Context, outcome models.TransactionOutcome) {
	ctx, cancel := context.WithTimeout(ctx, s.config.NotifyTimeout)
	defer cancel()

	if err := s.notifier.BookingComplete(ctx, outcome); err != nil {
		s.logger.Error("booking complete notification failed",
			"booking_id", outcome.BookingID,
			"error", err,
		)
	}
}
