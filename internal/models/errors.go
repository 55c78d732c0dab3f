package models

import (
	"errors"
	"strconv"
)

// QueryFailure is a rejected ledger search query.
type QueryFailure struct {
	DirectOnly bool
	Err        error
}

func (e *QueryFailure) Error() string {
	kind := "one-stop"
	if e.DirectOnly {
		kind = "direct"
	}
	return kind + " flight query failed: " + e.Err.Error()
}

func (e *QueryFailure) Unwrap() error {
	return e.Err
}

// ResolutionFailure is a failed ticket lookup. It only ever drops the
// itinerary that needed the ticket.
type ResolutionFailure struct {
	TicketID uint64
	Err      error
}

func (e *ResolutionFailure) Error() string {
	return "resolve ticket " + strconv.FormatUint(e.TicketID, 10) + ": " + e.Err.Error()
}

func (e *ResolutionFailure) Unwrap() error {
	return e.Err
}

// BookingFailure is a rejected booking transaction.
type BookingFailure struct {
	Err error
}

func (e *BookingFailure) Error() string {
	return "booking failed: " + e.Err.Error()
}

func (e *BookingFailure) Unwrap() error {
	return e.Err
}

var (
	ErrNoActiveSession   = errors.New("no search session")
	ErrItineraryNotFound = errors.New("itinerary not found in current results")
	ErrNoFlightChosen    = errors.New("no flight chosen")
	ErrPriceOverflow     = errors.New("itinerary price exceeds the representable range")
	ErrSuperseded        = errors.New("search superseded by a newer search")
)
