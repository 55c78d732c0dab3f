package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightbooking/internal/ledger/data"
	"github.com/dharmasatrya/flightbooking/internal/models"
)

const secondsPerDay = 24 * 60 * 60

type memoryData struct {
	Tickets []memoryTicket `json:"tickets"`
}

type memoryTicket struct {
	ID        uint64 `json:"id"`
	AirlineID uint64 `json:"airline_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	PriceWei  string `json:"price_wei"`
	Quantity  uint64 `json:"quantity"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

type MemoryConfig struct {
	// ResultCapacity is the fixed length of the arrays returned by the
	// search queries.
	ResultCapacity int
	// Latency is the upper bound of the simulated call delay. Zero disables it.
	Latency time.Duration
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		ResultCapacity: 20,
		Latency:        100 * time.Millisecond,
	}
}

// MemoryLedger serves the ledger contract from process memory. It backs
// local runs and tests; production deployments point at the real ledger.
type MemoryLedger struct {
	mu          sync.Mutex
	tickets     map[uint64]*models.Ticket
	order       []uint64
	config      MemoryConfig
	nextBooking uint64
}

func NewMemoryLedger(cfg MemoryConfig) (*MemoryLedger, error) {
	tickets, err := decodeTickets(data.Tickets)
	if err != nil {
		return nil, err
	}
	return NewMemoryLedgerFromTickets(tickets, cfg), nil
}

// decodeTickets rejects fixture fields the ledger does not serve.
func decodeTickets(raw []byte) ([]models.Ticket, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var resp memoryData
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(resp.Tickets))
	for _, t := range resp.Tickets {
		ticket, err := normalize(t)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: %w", t.ID, err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

func NewMemoryLedgerFromTickets(tickets []models.Ticket, cfg MemoryConfig) *MemoryLedger {
	if cfg.ResultCapacity <= 0 {
		cfg.ResultCapacity = DefaultMemoryConfig().ResultCapacity
	}

	l := &MemoryLedger{
		tickets: make(map[uint64]*models.Ticket, len(tickets)),
		config:  cfg,
	}
	for _, t := range tickets {
		ticket := t
		l.tickets[t.ID] = &ticket
		l.order = append(l.order, t.ID)
	}
	sort.Slice(l.order, func(i, j int) bool { return l.order[i] < l.order[j] })

	return l
}

func normalize(t memoryTicket) (models.Ticket, error) {
	price, err := strconv.ParseUint(t.PriceWei, 10, 64)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("price: %w", err)
	}
	dep, err := time.Parse(time.RFC3339, t.Departure)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("departure: %w", err)
	}
	arr, err := time.Parse(time.RFC3339, t.Arrival)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("arrival: %w", err)
	}
	if arr.Before(dep) {
		return models.Ticket{}, fmt.Errorf("arrival %s before departure %s", t.Arrival, t.Departure)
	}

	return models.Ticket{
		ID:          t.ID,
		AirlineID:   t.AirlineID,
		Origin:      t.From,
		Destination: t.To,
		Price:       price,
		Quantity:    t.Quantity,
		Departure:   dep.Unix(),
		Arrival:     arr.Unix(),
	}, nil
}

func (l *MemoryLedger) FindDirectFlights(ctx context.Context, origin, destination string, date int64) ([]uint64, error) {
	if err := l.delay(ctx); err != nil {
		return nil, NewLedgerError("findDirectFlights", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	results := make([]uint64, l.config.ResultCapacity)
	n := 0
	for _, id := range l.order {
		if n == len(results) {
			break
		}
		t := l.tickets[id]
		if t.Quantity == 0 || !sameDay(t.Departure, date) {
			continue
		}
		if !strings.EqualFold(t.Origin, origin) || !strings.EqualFold(t.Destination, destination) {
			continue
		}
		results[n] = id
		n++
	}

	return results, nil
}

func (l *MemoryLedger) FindOneStopFlights(ctx context.Context, origin, destination string, date int64) ([][2]uint64, error) {
	if err := l.delay(ctx); err != nil {
		return nil, NewLedgerError("findOneStopFlights", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	results := make([][2]uint64, l.config.ResultCapacity)
	n := 0
	add := func(first, second uint64) bool {
		if n == len(results) {
			return false
		}
		results[n] = [2]uint64{first, second}
		n++
		return true
	}

	for _, id := range l.order {
		t := l.tickets[id]
		if t.Quantity == 0 || !sameDay(t.Departure, date) || !strings.EqualFold(t.Origin, origin) {
			continue
		}

		if strings.EqualFold(t.Destination, destination) {
			if !add(id, Sentinel) {
				return results, nil
			}
			continue
		}

		for _, id2 := range l.order {
			t2 := l.tickets[id2]
			if t2.Quantity == 0 || t2.Departure < t.Arrival {
				continue
			}
			if !strings.EqualFold(t2.Origin, t.Destination) || !strings.EqualFold(t2.Destination, destination) {
				continue
			}
			if !add(id, id2) {
				return results, nil
			}
		}
	}

	return results, nil
}

func (l *MemoryLedger) GetTicket(ctx context.Context, id uint64) (models.Ticket, error) {
	if err := l.delay(ctx); err != nil {
		return models.Ticket{}, NewLedgerError("getTicket", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[id]
	if !ok {
		return models.Ticket{}, NewLedgerError("getTicket", fmt.Errorf("%w: %d", ErrTicketNotFound, id))
	}
	return *t, nil
}

func (l *MemoryLedger) BookFlight(ctx context.Context, ticketIDs [2]uint64, firstName, lastName string, value uint64) (models.TransactionOutcome, error) {
	if err := l.delay(ctx); err != nil {
		return models.TransactionOutcome{}, NewLedgerError("bookFlight", err)
	}

	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return models.TransactionOutcome{}, NewLedgerError("bookFlight", fmt.Errorf("%w: passenger name required", ErrInvalidBooking))
	}
	if ticketIDs[0] == Sentinel {
		return models.TransactionOutcome{}, NewLedgerError("bookFlight", fmt.Errorf("%w: first ticket required", ErrInvalidBooking))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var booked []*models.Ticket
	var legs []models.Ticket
	for _, id := range ticketIDs {
		if id == Sentinel {
			continue
		}
		t, ok := l.tickets[id]
		if !ok {
			return models.TransactionOutcome{}, NewLedgerError("bookFlight", fmt.Errorf("%w: %d", ErrTicketNotFound, id))
		}
		if t.Quantity == 0 {
			return models.TransactionOutcome{}, NewLedgerError("bookFlight", fmt.Errorf("%w: %d", ErrSoldOut, id))
		}
		booked = append(booked, t)
		legs = append(legs, *t)
	}
	total, ok := models.TotalPrice(legs...)
	if !ok {
		return models.TransactionOutcome{}, NewLedgerError("bookFlight", fmt.Errorf("%w: %v", ErrWrongValue, models.ErrPriceOverflow))
	}
	if total != value {
		return models.TransactionOutcome{}, NewLedgerError("bookFlight", fmt.Errorf("%w: got %d, want %d", ErrWrongValue, value, total))
	}

	for _, t := range booked {
		t.Quantity--
	}
	l.nextBooking++

	return models.TransactionOutcome{
		TxHash:    "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		BookingID: l.nextBooking,
		TicketIDs: ticketIDs,
		Value:     value,
		FirstName: firstName,
		LastName:  lastName,
		BookedAt:  time.Now().UTC(),
	}, nil
}

func (l *MemoryLedger) delay(ctx context.Context) error {
	if l.config.Latency <= 0 {
		return ctx.Err()
	}
	half := int64(l.config.Latency / 2)
	delay := time.Duration(half + rand.Int63n(half+1))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sameDay(ts, day int64) bool {
	start := day - day%secondsPerDay
	if start > day {
		start -= secondsPerDay
	}
	return ts >= start && ts < start+secondsPerDay
}
