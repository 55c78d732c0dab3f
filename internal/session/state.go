package session

import (
	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/sorting"
)

// State is everything a client of the search and booking flow observes: the
// active search session, the chosen sort key and the booking dialogs.
type State struct {
	SessionID   string
	Criteria    *models.SearchCriteria
	Itineraries []models.Itinerary
	// Dispatched is set once the ledger query returned and every entry of
	// its result has been handed to a resolution.
	Dispatched bool
	// Ready means the session's results may be presented.
	Ready   bool
	Pending int
	Failed  int

	Sort sorting.Key

	BookDialogOpen    bool
	FlightChosen      *models.Itinerary
	SuccessDialogOpen bool
	LastBooking       *models.TransactionOutcome
}

func Initial() State {
	return State{Sort: sorting.DefaultKey}
}

// Event is a state transition request.
type Event interface {
	event()
}

// SessionEvent is an event produced by work belonging to one search session.
type SessionEvent interface {
	Event
	Session() string
}

type SearchStarted struct {
	SessionID string
	Criteria  models.SearchCriteria
}

type ResolutionsDispatched struct {
	SessionID string
	Count     int
}

type ItineraryResolved struct {
	SessionID string
	Itinerary models.Itinerary
}

type ResolutionFailed struct {
	SessionID string
	TicketID  uint64
}

type SessionReady struct {
	SessionID string
}

type SortChanged struct {
	Key sorting.Key
}

type BookingDialogOpened struct {
	Itinerary models.Itinerary
}

type BookingDialogClosed struct{}

type BookingSucceeded struct {
	Outcome models.TransactionOutcome
}

type SuccessDialogClosed struct{}

func (SearchStarted) event()         {}
func (ResolutionsDispatched) event() {}
func (ItineraryResolved) event()     {}
func (ResolutionFailed) event()      {}
func (SessionReady) event()          {}
func (SortChanged) event()           {}
func (BookingDialogOpened) event()   {}
func (BookingDialogClosed) event()   {}
func (BookingSucceeded) event()      {}
func (SuccessDialogClosed) event()   {}

func (e ResolutionsDispatched) Session() string { return e.SessionID }
func (e ItineraryResolved) Session() string     { return e.SessionID }
func (e ResolutionFailed) Session() string      { return e.SessionID }
func (e SessionReady) Session() string          { return e.SessionID }

// Stale reports whether e was produced by a session that is no longer the
// active one.
func Stale(s State, e Event) bool {
	se, ok := e.(SessionEvent)
	if !ok {
		return false
	}
	return s.SessionID == "" || se.Session() != s.SessionID
}

// Reduce applies e to s and returns the new state. s is never modified;
// stale session events return s unchanged.
func Reduce(s State, e Event) State {
	if Stale(s, e) {
		return s
	}

	next := s
	switch ev := e.(type) {
	case SearchStarted:
		criteria := ev.Criteria
		next.SessionID = ev.SessionID
		next.Criteria = &criteria
		next.Itineraries = nil
		next.Dispatched = false
		next.Ready = false
		next.Pending = 0
		next.Failed = 0

	case ResolutionsDispatched:
		next.Dispatched = true
		next.Pending += ev.Count

	case ItineraryResolved:
		next.Itineraries = append(s.Itineraries[:len(s.Itineraries):len(s.Itineraries)], ev.Itinerary)
		next.Pending = settle(s.Pending)

	case ResolutionFailed:
		next.Failed++
		next.Pending = settle(s.Pending)

	case SessionReady:
		next.Ready = true

	case SortChanged:
		next.Sort = sorting.ParseKey(string(ev.Key))

	case BookingDialogOpened:
		chosen := ev.Itinerary
		next.FlightChosen = &chosen
		next.BookDialogOpen = true

	case BookingDialogClosed:
		next.BookDialogOpen = false

	case BookingSucceeded:
		outcome := ev.Outcome
		next.LastBooking = &outcome
		next.BookDialogOpen = false
		next.SuccessDialogOpen = true

	case SuccessDialogClosed:
		next.SuccessDialogOpen = false
	}

	return next
}

func settle(pending int) int {
	if pending > 0 {
		return pending - 1
	}
	return 0
}
