package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/dharmasatrya/flightbooking/internal/cache"
	"github.com/dharmasatrya/flightbooking/internal/ledger"
	"github.com/dharmasatrya/flightbooking/internal/metrics"
	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/ratelimit"
)

// Resolver fetches the full ticket record for an id.
type Resolver interface {
	Resolve(ctx context.Context, id uint64) (models.Ticket, error)
}

type Config struct {
	Limiter *ratelimit.CallLimiter
	Cache   cache.TicketCache
	Logger  *slog.Logger
}

// LedgerResolver resolves tickets from the ledger, consulting the ticket
// cache first and storing fresh snapshots back into it.
type LedgerResolver struct {
	ledger  ledger.Ledger
	limiter *ratelimit.CallLimiter
	cache   cache.TicketCache
	logger  *slog.Logger
}

func NewLedgerResolver(l ledger.Ledger, cfg Config) *LedgerResolver {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNoOpCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LedgerResolver{
		ledger:  l,
		limiter: cfg.Limiter,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

func (r *LedgerResolver) Resolve(ctx context.Context, id uint64) (models.Ticket, error) {
	if ticket, ok := r.cache.Get(ctx, id); ok {
		metrics.CacheHits.Inc()
		return ticket, nil
	}
	metrics.CacheMisses.Inc()

	if err := r.limiter.Wait(ctx, ratelimit.CallTicket); err != nil {
		return models.Ticket{}, err
	}

	start := time.Now()
	ticket, err := r.ledger.GetTicket(ctx, id)
	metrics.ObserveLedgerCall("getTicket", start, err)
	if err != nil {
		return models.Ticket{}, err
	}

	if err := r.cache.Set(ctx, ticket); err != nil {
		r.logger.Warn("ticket cache write failed", "ticket_id", id, "error", err)
	}

	return ticket, nil
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, id uint64) (models.Ticket, error)

func (f Func) Resolve(ctx context.Context, id uint64) (models.Ticket, error) {
	return f(ctx, id)
}
