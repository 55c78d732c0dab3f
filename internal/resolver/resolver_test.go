package resolver_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/resolver"
)

// --- Mock ledger ---

type mockLedger struct {
	getTicketFn func(ctx context.Context, id uint64) (models.Ticket, error)
	calls       int
}

func (m *mockLedger) FindDirectFlights(ctx context.Context, origin, destination string, date int64) ([]uint64, error) {
	return nil, nil
}

func (m *mockLedger) FindOneStopFlights(ctx context.Context, origin, destination string, date int64) ([][2]uint64, error) {
	return nil, nil
}

func (m *mockLedger) GetTicket(ctx context.Context, id uint64) (models.Ticket, error) {
	m.calls++
	if m.getTicketFn != nil {
		return m.getTicketFn(ctx, id)
	}
	return models.Ticket{ID: id}, nil
}

func (m *mockLedger) BookFlight(ctx context.Context, ids [2]uint64, firstName, lastName string, value uint64) (models.TransactionOutcome, error) {
	return models.TransactionOutcome{}, nil
}

// --- Mock cache ---

type mapCache struct {
	mu      sync.Mutex
	tickets map[uint64]models.Ticket
	setErr  error
}

func newMapCache() *mapCache {
	return &mapCache{tickets: make(map[uint64]models.Ticket)}
}

func (c *mapCache) Get(ctx context.Context, id uint64) (models.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[id]
	return t, ok
}

func (c *mapCache) Set(ctx context.Context, t models.Ticket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.tickets[t.ID] = t
	return nil
}

func (c *mapCache) Close() error { return nil }

// --- Tests ---

func TestLedgerResolver_CachesSnapshots(t *testing.T) {
	l := &mockLedger{
		getTicketFn: func(ctx context.Context, id uint64) (models.Ticket, error) {
			return models.Ticket{ID: id, Price: 10}, nil
		},
	}
	c := newMapCache()
	r := resolver.NewLedgerResolver(l, resolver.Config{Cache: c})

	for i := 0; i < 3; i++ {
		ticket, err := r.Resolve(context.Background(), 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.Price != 10 {
			t.Errorf("expected price 10, got %d", ticket.Price)
		}
	}
	if l.calls != 1 {
		t.Errorf("expected 1 ledger call, got %d", l.calls)
	}
}

func TestLedgerResolver_PropagatesLedgerError(t *testing.T) {
	boom := errors.New("boom")
	l := &mockLedger{
		getTicketFn: func(ctx context.Context, id uint64) (models.Ticket, error) {
			return models.Ticket{}, boom
		},
	}
	c := newMapCache()
	r := resolver.NewLedgerResolver(l, resolver.Config{Cache: c})

	if _, err := r.Resolve(context.Background(), 4); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get(context.Background(), 4); ok {
		t.Error("failed lookups must not be cached")
	}
}

func TestLedgerResolver_CacheWriteFailureIsNotFatal(t *testing.T) {
	c := newMapCache()
	c.setErr = errors.New("redis down")
	r := resolver.NewLedgerResolver(&mockLedger{}, resolver.Config{Cache: c})

	ticket, err := r.Resolve(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.ID != 9 {
		t.Errorf("expected ticket 9, got %d", ticket.ID)
	}
}

func TestLedgerResolver_DefaultsToNoCache(t *testing.T) {
	l := &mockLedger{}
	r := resolver.NewLedgerResolver(l, resolver.Config{})

	_, _ = r.Resolve(context.Background(), 1)
	_, _ = r.Resolve(context.Background(), 1)
	if l.calls != 2 {
		t.Errorf("expected 2 ledger calls without a cache, got %d", l.calls)
	}
}
