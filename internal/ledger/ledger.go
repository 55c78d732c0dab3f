package ledger

import (
	"context"
	"errors"

	"github.com/dharmasatrya/flightbooking/internal/models"
)

// Ledger is the external store of tickets. Search results keep the ledger's
// wire shape: fixed-capacity arrays in which id 0 ends the results and, in
// a pair, marks an absent second ticket.
type Ledger interface {
	FindDirectFlights(ctx context.Context, origin, destination string, date int64) ([]uint64, error)
	FindOneStopFlights(ctx context.Context, origin, destination string, date int64) ([][2]uint64, error)
	GetTicket(ctx context.Context, id uint64) (models.Ticket, error)
	BookFlight(ctx context.Context, ticketIDs [2]uint64, firstName, lastName string, value uint64) (models.TransactionOutcome, error)
}

const Sentinel uint64 = 0

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrSoldOut        = errors.New("ticket sold out")
	ErrWrongValue     = errors.New("value does not match total price")
	ErrInvalidBooking = errors.New("invalid booking")
)

type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func NewLedgerError(op string, err error) *LedgerError {
	return &LedgerError{
		Op:  op,
		Err: err,
	}
}

// DecodeDirect turns a direct-flight result into refs, stopping at the
// first sentinel.
func DecodeDirect(raw []uint64) []models.FlightRef {
	refs := make([]models.FlightRef, 0, len(raw))
	for _, id := range raw {
		if id == Sentinel {
			break
		}
		refs = append(refs, models.DirectRef(id))
	}
	return refs
}

// DecodeOneStop turns a one-stop result into refs, stopping at the first
// pair whose first id is the sentinel. A pair with a sentinel second id is
// a direct flight.
func DecodeOneStop(raw [][2]uint64) []models.FlightRef {
	refs := make([]models.FlightRef, 0, len(raw))
	for _, pair := range raw {
		if pair[0] == Sentinel {
			break
		}
		if pair[1] == Sentinel {
			refs = append(refs, models.DirectRef(pair[0]))
			continue
		}
		refs = append(refs, models.OneStopRef(pair[0], pair[1]))
	}
	return refs
}
