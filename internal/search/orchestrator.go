package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightbooking/internal/assembler"
	"github.com/dharmasatrya/flightbooking/internal/ledger"
	"github.com/dharmasatrya/flightbooking/internal/metrics"
	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/ratelimit"
	"github.com/dharmasatrya/flightbooking/internal/session"
)

// ReadyPolicy decides when a session is marked ready and the processed
// callback runs.
type ReadyPolicy string

const (
	// ReadyOnSettled waits until every dispatched resolution has either
	// appended its itinerary or failed.
	ReadyOnSettled ReadyPolicy = "settled"
	// ReadyOnDispatch fires as soon as the query result has been walked,
	// while resolutions may still be in flight.
	ReadyOnDispatch ReadyPolicy = "dispatch"
)

func ParseReadyPolicy(s string) ReadyPolicy {
	if ReadyPolicy(strings.ToLower(strings.TrimSpace(s))) == ReadyOnDispatch {
		return ReadyOnDispatch
	}
	return ReadyOnSettled
}

type Config struct {
	// ResolveTimeout bounds the whole background part of a search: the
	// ledger query and every ticket resolution it triggers.
	ResolveTimeout time.Duration
	ReadyPolicy    ReadyPolicy
	Limiter        *ratelimit.CallLimiter
	Logger         *slog.Logger
	NewSessionID   func() string
}

func DefaultConfig() Config {
	return Config{
		ResolveTimeout: 10 * time.Second,
		ReadyPolicy:    ReadyOnSettled,
	}
}

type Orchestrator struct {
	ledger    ledger.Ledger
	assembler *assembler.Assembler
	store     *session.Store
	config    Config
	logger    *slog.Logger
}

func NewOrchestrator(l ledger.Ledger, a *assembler.Assembler, store *session.Store, config Config) *Orchestrator {
	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = DefaultConfig().ResolveTimeout
	}
	if config.ReadyPolicy == "" {
		config.ReadyPolicy = ReadyOnSettled
	}
	if config.NewSessionID == nil {
		config.NewSessionID = uuid.NewString
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		ledger:    l,
		assembler: a,
		store:     store,
		config:    config,
		logger:    logger,
	}
}

// Search starts a new session for criteria and returns its id. The previous
// session's results are cleared before the ledger is queried. The query and
// the resolutions run in the background; onProcessed receives the state once
// the session is ready. If the query fails, onProcessed is never called.
func (o *Orchestrator) Search(ctx context.Context, criteria models.SearchCriteria, onProcessed func(session.State)) (string, error) {
	id, err := o.begin(criteria)
	if err != nil {
		return "", err
	}

	go func() {
		_ = o.run(context.WithoutCancel(ctx), id, criteria, onProcessed)
	}()

	return id, nil
}

// SearchAndWait runs Search and blocks until the session is processed, the
// query fails, or ctx is done. On ctx expiry the current, possibly partial,
// state is returned together with ctx's error. If a newer search replaced
// this one first, the newer session's state is returned with ErrSuperseded.
func (o *Orchestrator) SearchAndWait(ctx context.Context, criteria models.SearchCriteria) (session.State, error) {
	id, err := o.begin(criteria)
	if err != nil {
		return session.State{}, err
	}

	processed := make(chan session.State, 1)
	failed := make(chan error, 1)
	go func() {
		err := o.run(context.WithoutCancel(ctx), id, criteria, func(s session.State) {
			processed <- s
		})
		if err != nil {
			failed <- err
		}
	}()

	select {
	case s := <-processed:
		if s.SessionID != id {
			return s, models.ErrSuperseded
		}
		return s, nil
	case err := <-failed:
		return session.State{}, err
	case <-ctx.Done():
		return o.store.Snapshot(), ctx.Err()
	}
}

func (o *Orchestrator) begin(criteria models.SearchCriteria) (string, error) {
	if err := criteria.Validate(); err != nil {
		return "", err
	}

	id := o.config.NewSessionID()
	o.store.Dispatch(session.SearchStarted{SessionID: id, Criteria: criteria})
	metrics.SearchesTotal.WithLabelValues(metrics.Mode(criteria.DirectOnly)).Inc()

	o.logger.Info("search started",
		"session_id", id,
		"origin", criteria.Origin,
		"destination", criteria.Destination,
		"date", criteria.Date,
		"direct_only", criteria.DirectOnly,
	)

	return id, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, criteria models.SearchCriteria, onProcessed func(session.State)) error {
	ctx, cancel := context.WithTimeout(ctx, o.config.ResolveTimeout)
	defer cancel()

	refs, err := o.query(ctx, criteria)
	if err != nil {
		metrics.QueryFailures.WithLabelValues(metrics.Mode(criteria.DirectOnly)).Inc()
		o.logger.Error("flight query failed", "session_id", id, "error", err)
		return err
	}

	o.store.Dispatch(session.ResolutionsDispatched{SessionID: id, Count: len(refs)})

	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref models.FlightRef) {
			defer wg.Done()
			o.resolve(ctx, id, ref)
		}(ref)
	}

	if o.config.ReadyPolicy == ReadyOnDispatch {
		o.finish(id, len(refs), onProcessed)
		wg.Wait()
		return nil
	}

	wg.Wait()
	o.finish(id, len(refs), onProcessed)
	return nil
}

func (o *Orchestrator) query(ctx context.Context, criteria models.SearchCriteria) ([]models.FlightRef, error) {
	if err := o.config.Limiter.Wait(ctx, ratelimit.CallQuery); err != nil {
		return nil, &models.QueryFailure{DirectOnly: criteria.DirectOnly, Err: err}
	}

	start := time.Now()
	if criteria.DirectOnly {
		raw, err := o.ledger.FindDirectFlights(ctx, criteria.Origin, criteria.Destination, criteria.Date)
		metrics.ObserveLedgerCall("findDirectFlights", start, err)
		if err != nil {
			return nil, &models.QueryFailure{DirectOnly: true, Err: err}
		}
		return ledger.DecodeDirect(raw), nil
	}

	raw, err := o.ledger.FindOneStopFlights(ctx, criteria.Origin, criteria.Destination, criteria.Date)
	metrics.ObserveLedgerCall("findOneStopFlights", start, err)
	if err != nil {
		return nil, &models.QueryFailure{DirectOnly: false, Err: err}
	}
	return ledger.DecodeOneStop(raw), nil
}

func (o *Orchestrator) resolve(ctx context.Context, id string, ref models.FlightRef) {
	it, err := o.assembler.Assemble(ctx, ref)
	if err != nil {
		metrics.Resolutions.WithLabelValues("failed").Inc()

		var failure *models.ResolutionFailure
		var ticketID uint64
		if errors.As(err, &failure) {
			ticketID = failure.TicketID
		}
		o.logger.Warn("itinerary resolution failed",
			"session_id", id,
			"ticket_ids", ref.TicketIDs,
			"error", err,
		)
		o.store.Dispatch(session.ResolutionFailed{SessionID: id, TicketID: ticketID})
		return
	}

	metrics.Resolutions.WithLabelValues("ok").Inc()
	if o.store.Dispatch(session.ItineraryResolved{SessionID: id, Itinerary: it}) {
		metrics.ItinerariesApplied.WithLabelValues("appended").Inc()
		return
	}

	metrics.ItinerariesApplied.WithLabelValues("discarded").Inc()
	o.logger.Debug("discarded itinerary from superseded session",
		"session_id", id,
		"itinerary_id", it.ID(),
	)
}

func (o *Orchestrator) finish(id string, dispatched int, onProcessed func(session.State)) {
	if !o.store.Dispatch(session.SessionReady{SessionID: id}) {
		o.logger.Info("search superseded before it was processed", "session_id", id)
	} else {
		o.logger.Info("search processed", "session_id", id, "results", dispatched, "policy", string(o.config.ReadyPolicy))
	}

	if onProcessed != nil {
		onProcessed(o.store.Snapshot())
	}
}
