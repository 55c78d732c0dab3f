package models

import (
	"math/bits"
	"strconv"
	"strings"
)

type Ticket struct {
	ID          uint64 `json:"id"`
	AirlineID   uint64 `json:"airline_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Price       uint64 `json:"price"`
	Quantity    uint64 `json:"quantity"`
	Departure   int64  `json:"departure"`
	Arrival     int64  `json:"arrival"`
}

// FlightRef is one decoded entry of a ledger search result: the ids of the
// tickets that make up a single itinerary, in travel order.
type FlightRef struct {
	TicketIDs []uint64
}

func DirectRef(id uint64) FlightRef {
	return FlightRef{TicketIDs: []uint64{id}}
}

func OneStopRef(first, second uint64) FlightRef {
	return FlightRef{TicketIDs: []uint64{first, second}}
}

func (r FlightRef) Stops() int {
	return len(r.TicketIDs) - 1
}

type Itinerary struct {
	Stops      int      `json:"stops"`
	PriceTotal uint64   `json:"price_total"`
	Tickets    []Ticket `json:"tickets"`
}

// TotalPrice sums ticket prices exactly. ok is false when the sum does not
// fit in a uint64.
func TotalPrice(tickets ...Ticket) (total uint64, ok bool) {
	for _, t := range tickets {
		var carry uint64
		total, carry = bits.Add64(total, t.Price, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return total, true
}

// NewItinerary builds an itinerary from one ticket (direct) or two chained
// tickets (one stop). The tickets are copied. Callers check TotalPrice
// first; an overflowing sum is not representable.
func NewItinerary(tickets ...Ticket) Itinerary {
	owned := make([]Ticket, len(tickets))
	copy(owned, tickets)

	total, _ := TotalPrice(owned...)

	return Itinerary{
		Stops:      len(owned) - 1,
		PriceTotal: total,
		Tickets:    owned,
	}
}

// ID is "5" for a direct itinerary and "3-7" for a one-stop itinerary.
func (it Itinerary) ID() string {
	parts := make([]string, len(it.Tickets))
	for i, t := range it.Tickets {
		parts[i] = strconv.FormatUint(t.ID, 10)
	}
	return strings.Join(parts, "-")
}

// Duration is the elapsed time in seconds from the first departure to the
// last arrival, layover included.
func (it Itinerary) Duration() int64 {
	if len(it.Tickets) == 0 {
		return 0
	}
	return it.Tickets[len(it.Tickets)-1].Arrival - it.Tickets[0].Departure
}

// TicketIDs returns the pair submitted to the ledger on booking. The second
// id is 0 for a direct itinerary.
func (it Itinerary) TicketIDs() [2]uint64 {
	var ids [2]uint64
	if len(it.Tickets) > 0 {
		ids[0] = it.Tickets[0].ID
	}
	if len(it.Tickets) > 1 {
		ids[1] = it.Tickets[1].ID
	}
	return ids
}
