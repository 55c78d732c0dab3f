package session

import (
	"sync"
	"testing"

	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/sorting"
)

func itinerary(ids ...uint64) models.Itinerary {
	tickets := make([]models.Ticket, len(ids))
	for i, id := range ids {
		tickets[i] = models.Ticket{ID: id, Price: id * 10}
	}
	return models.NewItinerary(tickets...)
}

var criteria = models.SearchCriteria{Origin: "Hong Kong", Destination: "Tokyo", Date: 1536537600}

func TestReduce_SearchStartedClearsPreviousSession(t *testing.T) {
	s := Initial()
	s = Reduce(s, SearchStarted{SessionID: "a", Criteria: criteria})
	s = Reduce(s, ResolutionsDispatched{SessionID: "a", Count: 1})
	s = Reduce(s, ItineraryResolved{SessionID: "a", Itinerary: itinerary(1)})
	s = Reduce(s, SessionReady{SessionID: "a"})
	s = Reduce(s, SortChanged{Key: sorting.Shortest})

	s = Reduce(s, SearchStarted{SessionID: "b", Criteria: criteria})

	if len(s.Itineraries) != 0 {
		t.Errorf("expected an empty list, got %d itineraries", len(s.Itineraries))
	}
	if s.Ready || s.Dispatched {
		t.Error("expected a fresh session to be neither ready nor dispatched")
	}
	if s.Sort != sorting.Shortest {
		t.Errorf("expected the sort key to persist, got %s", s.Sort)
	}
	if s.SessionID != "b" {
		t.Errorf("expected session b, got %s", s.SessionID)
	}
}

func TestReduce_DiscardsStaleSessionEvents(t *testing.T) {
	s := Reduce(Initial(), SearchStarted{SessionID: "new", Criteria: criteria})

	stale := []Event{
		ItineraryResolved{SessionID: "old", Itinerary: itinerary(1)},
		ResolutionFailed{SessionID: "old", TicketID: 1},
		ResolutionsDispatched{SessionID: "old", Count: 3},
		SessionReady{SessionID: "old"},
	}
	for _, e := range stale {
		if !Stale(s, e) {
			t.Errorf("expected %T to be stale", e)
		}
		next := Reduce(s, e)
		if len(next.Itineraries) != 0 || next.Ready || next.Pending != 0 || next.Failed != 0 || next.Dispatched {
			t.Errorf("%T from a superseded session changed the state: %+v", e, next)
		}
	}
}

func TestReduce_SessionEventsBeforeAnySearchAreStale(t *testing.T) {
	if !Stale(Initial(), ItineraryResolved{SessionID: ""}) {
		t.Fatal("expected session events without an active session to be stale")
	}
}

func TestReduce_PendingAccounting(t *testing.T) {
	s := Reduce(Initial(), SearchStarted{SessionID: "a", Criteria: criteria})
	s = Reduce(s, ResolutionsDispatched{SessionID: "a", Count: 3})
	if !s.Dispatched || s.Pending != 3 {
		t.Fatalf("expected 3 pending after dispatch, got %+v", s)
	}

	s = Reduce(s, ItineraryResolved{SessionID: "a", Itinerary: itinerary(1)})
	s = Reduce(s, ResolutionFailed{SessionID: "a", TicketID: 2})
	s = Reduce(s, ItineraryResolved{SessionID: "a", Itinerary: itinerary(3, 4)})

	if s.Pending != 0 {
		t.Errorf("expected nothing pending, got %d", s.Pending)
	}
	if s.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", s.Failed)
	}
	if len(s.Itineraries) != 2 {
		t.Errorf("expected 2 itineraries, got %d", len(s.Itineraries))
	}
	if s.Ready {
		t.Error("ready is only set by SessionReady")
	}
}

func TestReduce_DoesNotAliasPreviousState(t *testing.T) {
	s := Reduce(Initial(), SearchStarted{SessionID: "a", Criteria: criteria})
	s = Reduce(s, ItineraryResolved{SessionID: "a", Itinerary: itinerary(1)})

	left := Reduce(s, ItineraryResolved{SessionID: "a", Itinerary: itinerary(2)})
	right := Reduce(s, ItineraryResolved{SessionID: "a", Itinerary: itinerary(3)})

	if left.Itineraries[1].ID() != "2" || right.Itineraries[1].ID() != "3" {
		t.Fatalf("branches share backing storage: %s / %s", left.Itineraries[1].ID(), right.Itineraries[1].ID())
	}
	if len(s.Itineraries) != 1 {
		t.Fatalf("original state was modified: %d itineraries", len(s.Itineraries))
	}
}

func TestReduce_BookingDialogs(t *testing.T) {
	s := Initial()
	chosen := itinerary(5)

	s = Reduce(s, BookingDialogOpened{Itinerary: chosen})
	if !s.BookDialogOpen || s.FlightChosen == nil || s.FlightChosen.ID() != "5" {
		t.Fatalf("expected dialog open for flight 5, got %+v", s)
	}

	s = Reduce(s, BookingSucceeded{Outcome: models.TransactionOutcome{BookingID: 7}})
	if s.BookDialogOpen {
		t.Error("expected booking dialog closed after success")
	}
	if !s.SuccessDialogOpen {
		t.Error("expected success dialog open")
	}
	if s.LastBooking == nil || s.LastBooking.BookingID != 7 {
		t.Errorf("expected last booking 7, got %+v", s.LastBooking)
	}

	s = Reduce(s, SuccessDialogClosed{})
	if s.SuccessDialogOpen {
		t.Error("expected success dialog closed")
	}

	s = Reduce(s, BookingDialogOpened{Itinerary: chosen})
	s = Reduce(s, BookingDialogClosed{})
	if s.BookDialogOpen {
		t.Error("expected booking dialog closed")
	}
}

func TestReduce_SortChangedNormalizesKey(t *testing.T) {
	s := Reduce(Initial(), SortChanged{Key: "nonsense"})
	if s.Sort != sorting.Cheapest {
		t.Errorf("expected cheapest, got %s", s.Sort)
	}
}

func TestStore_ConcurrentAppendsAreNotLost(t *testing.T) {
	store := NewStore()
	store.Dispatch(SearchStarted{SessionID: "a", Criteria: criteria})
	store.Dispatch(ResolutionsDispatched{SessionID: "a", Count: 100})

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			store.Dispatch(ItineraryResolved{SessionID: "a", Itinerary: itinerary(id)})
		}(uint64(i))
	}
	wg.Wait()

	snap := store.Snapshot()
	if len(snap.Itineraries) != 100 {
		t.Fatalf("expected 100 itineraries, got %d", len(snap.Itineraries))
	}
	if snap.Pending != 0 {
		t.Errorf("expected nothing pending, got %d", snap.Pending)
	}
}

func TestStore_DispatchReportsStaleEvents(t *testing.T) {
	store := NewStore()
	store.Dispatch(SearchStarted{SessionID: "a", Criteria: criteria})
	store.Dispatch(SearchStarted{SessionID: "b", Criteria: criteria})

	if store.Dispatch(ItineraryResolved{SessionID: "a", Itinerary: itinerary(1)}) {
		t.Fatal("expected the stale append to be rejected")
	}
	if !store.Dispatch(ItineraryResolved{SessionID: "b", Itinerary: itinerary(2)}) {
		t.Fatal("expected the current append to be accepted")
	}

	it, ok := store.Find("2")
	if !ok || it.ID() != "2" {
		t.Fatalf("expected to find itinerary 2, got %v %v", it, ok)
	}
	if _, ok := store.Find("1"); ok {
		t.Fatal("itinerary from the superseded session must not be present")
	}
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	store := NewStore()
	store.Dispatch(SearchStarted{SessionID: "a", Criteria: criteria})
	store.Dispatch(ItineraryResolved{SessionID: "a", Itinerary: itinerary(1)})

	snap := store.Snapshot()
	snap.Itineraries[0] = itinerary(99)

	if it, _ := store.Find("1"); it.ID() != "1" {
		t.Fatal("mutating a snapshot changed the store")
	}
}
