package assembler

import (
	"context"
	"fmt"

	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/resolver"
)

// Assembler turns a decoded search result entry into an itinerary.
type Assembler struct {
	resolver resolver.Resolver
}

func New(r resolver.Resolver) *Assembler {
	return &Assembler{resolver: r}
}

// Assemble resolves the tickets of ref in travel order. The second ticket
// of a one-stop flight is only fetched once the first has resolved.
func (a *Assembler) Assemble(ctx context.Context, ref models.FlightRef) (models.Itinerary, error) {
	if len(ref.TicketIDs) == 0 || len(ref.TicketIDs) > 2 {
		return models.Itinerary{}, fmt.Errorf("flight ref with %d tickets", len(ref.TicketIDs))
	}

	tickets := make([]models.Ticket, 0, len(ref.TicketIDs))
	for _, id := range ref.TicketIDs {
		ticket, err := a.resolver.Resolve(ctx, id)
		if err != nil {
			return models.Itinerary{}, &models.ResolutionFailure{TicketID: id, Err: err}
		}
		tickets = append(tickets, ticket)
	}

	if _, ok := models.TotalPrice(tickets...); !ok {
		last := ref.TicketIDs[len(ref.TicketIDs)-1]
		return models.Itinerary{}, &models.ResolutionFailure{TicketID: last, Err: models.ErrPriceOverflow}
	}

	return models.NewItinerary(tickets...), nil
}
