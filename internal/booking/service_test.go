package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dharmasatrya/flightbooking/internal/booking"
	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/internal/notify"
	"github.com/dharmasatrya/flightbooking/internal/session"
)

// --- Mock ledger ---

type bookCall struct {
	ids       [2]uint64
	firstName string
	lastName  string
	value     uint64
}

type mockLedger struct {
	bookFn func(ctx context.Context, ids [2]uint64, firstName, lastName string, value uint64) (models.TransactionOutcome, error)
	calls  []bookCall
}

func (m *mockLedger) FindDirectFlights(ctx context.Context, origin, destination string, date int64) ([]uint64, error) {
	return nil, nil
}

func (m *mockLedger) FindOneStopFlights(ctx context.Context, origin, destination string, date int64) ([][2]uint64, error) {
	return nil, nil
}

func (m *mockLedger) GetTicket(ctx context.Context, id uint64) (models.Ticket, error) {
	return models.Ticket{}, nil
}

func (m *mockLedger) BookFlight(ctx context.Context, ids [2]uint64, firstName, lastName string, value uint64) (models.TransactionOutcome, error) {
	m.calls = append(m.calls, bookCall{ids: ids, firstName: firstName, lastName: lastName, value: value})
	if m.bookFn != nil {
		return m.bookFn(ctx, ids, firstName, lastName, value)
	}
	return models.TransactionOutcome{BookingID: 1, TicketIDs: ids, Value: value, FirstName: firstName, LastName: lastName}, nil
}

// --- Helpers ---

func directItinerary() models.Itinerary {
	return models.NewItinerary(models.Ticket{ID: 5, Price: 100})
}

func oneStopItinerary() models.Itinerary {
	return models.NewItinerary(
		models.Ticket{ID: 3, Price: 120, Destination: "Seoul"},
		models.Ticket{ID: 7, Price: 90, Origin: "Seoul"},
	)
}

func storeWith(its ...models.Itinerary) *session.Store {
	store := session.NewStore()
	store.Dispatch(session.SearchStarted{SessionID: "s1", Criteria: models.SearchCriteria{Origin: "A", Destination: "B"}})
	store.Dispatch(session.ResolutionsDispatched{SessionID: "s1", Count: len(its)})
	for _, it := range its {
		store.Dispatch(session.ItineraryResolved{SessionID: "s1", Itinerary: it})
	}
	store.Dispatch(session.SessionReady{SessionID: "s1"})
	return store
}

func channelNotifier() (notify.Func, <-chan models.TransactionOutcome) {
	ch := make(chan models.TransactionOutcome, 1)
	return func(ctx context.Context, outcome models.TransactionOutcome) error {
		ch <- outcome
		return nil
	}, ch
}

// --- Tests ---

func TestBook_DirectSubmitsSentinelSecondID(t *testing.T) {
	l := &mockLedger{}
	svc := booking.NewService(l, storeWith(directItinerary()), nil, booking.Config{})

	_, err := svc.Book(context.Background(), models.BookingRequest{Itinerary: directItinerary(), FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(l.calls) != 1 {
		t.Fatalf("expected exactly one booking call, got %d", len(l.calls))
	}
	call := l.calls[0]
	if call.ids != [2]uint64{5, 0} {
		t.Errorf("expected ids [5 0], got %v", call.ids)
	}
	if call.value != 100 {
		t.Errorf("expected value 100, got %d", call.value)
	}
	if call.firstName != "Ada" || call.lastName != "Lovelace" {
		t.Errorf("unexpected passenger %s %s", call.firstName, call.lastName)
	}
}

func TestBook_OneStopCarriesTotalPrice(t *testing.T) {
	l := &mockLedger{}
	svc := booking.NewService(l, storeWith(oneStopItinerary()), nil, booking.Config{})

	if _, err := svc.Book(context.Background(), models.BookingRequest{Itinerary: oneStopItinerary(), FirstName: "Ada", LastName: "Lovelace"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := l.calls[0]
	if call.ids != [2]uint64{3, 7} {
		t.Errorf("expected ids [3 7], got %v", call.ids)
	}
	if call.value != 210 {
		t.Errorf("expected value 210, got %d", call.value)
	}
}

func TestBookChosen_SuccessTransitionsDialogsAndNotifies(t *testing.T) {
	l := &mockLedger{}
	store := storeWith(directItinerary(), oneStopItinerary())
	n, notified := channelNotifier()
	svc := booking.NewService(l, store, n, booking.Config{})

	if _, err := svc.Select("3-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Snapshot().BookDialogOpen {
		t.Fatal("expected the booking dialog to be open")
	}

	outcome, err := svc.BookChosen(context.Background(), "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := store.Snapshot()
	if s.BookDialogOpen {
		t.Error("expected the booking dialog to close")
	}
	if !s.SuccessDialogOpen {
		t.Error("expected the success dialog to open")
	}
	if s.LastBooking == nil || s.LastBooking.Value != 210 {
		t.Errorf("expected the outcome to be recorded, got %+v", s.LastBooking)
	}

	select {
	case got := <-notified:
		if got.BookingID != outcome.BookingID {
			t.Errorf("expected notification for booking %d, got %d", outcome.BookingID, got.BookingID)
		}
	case <-time.After(time.Second):
		t.Fatal("booking complete notification was not sent")
	}

	svc.CloseSuccess()
	if store.Snapshot().SuccessDialogOpen {
		t.Error("expected the success dialog to close")
	}
}

func TestBook_RejectionLeavesDialogOpen(t *testing.T) {
	rejected := errors.New("VM Exception while processing transaction: revert")
	l := &mockLedger{
		bookFn: func(ctx context.Context, ids [2]uint64, firstName, lastName string, value uint64) (models.TransactionOutcome, error) {
			return models.TransactionOutcome{}, rejected
		},
	}
	store := storeWith(directItinerary())
	n, notified := channelNotifier()
	svc := booking.NewService(l, store, n, booking.Config{})

	if _, err := svc.Select("5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := store.Snapshot()

	_, err := svc.BookChosen(context.Background(), "Ada", "Lovelace")

	var bf *models.BookingFailure
	if !errors.As(err, &bf) || !errors.Is(err, rejected) {
		t.Fatalf("expected BookingFailure wrapping the rejection, got %v", err)
	}

	after := store.Snapshot()
	if !after.BookDialogOpen || after.SuccessDialogOpen {
		t.Errorf("expected dialog state unchanged, got open=%v success=%v", after.BookDialogOpen, after.SuccessDialogOpen)
	}
	if after.LastBooking != before.LastBooking {
		t.Error("expected no booking to be recorded")
	}
	if len(l.calls) != 1 {
		t.Errorf("expected a single attempt, got %d", len(l.calls))
	}

	select {
	case <-notified:
		t.Fatal("no notification expected after a rejected booking")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBook_ValidatesPassenger(t *testing.T) {
	l := &mockLedger{}
	svc := booking.NewService(l, storeWith(directItinerary()), nil, booking.Config{})

	_, err := svc.Book(context.Background(), models.BookingRequest{Itinerary: directItinerary(), FirstName: " ", LastName: ""})

	var verr models.ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verr[models.FieldFirstName] == "" || verr[models.FieldLastName] == "" {
		t.Errorf("expected both name errors, got %v", verr)
	}
	if len(l.calls) != 0 {
		t.Errorf("expected no booking call, got %d", len(l.calls))
	}
}

func TestSelect_UnknownItinerary(t *testing.T) {
	store := storeWith(directItinerary())
	svc := booking.NewService(&mockLedger{}, store, nil, booking.Config{})

	if _, err := svc.Select("42"); !errors.Is(err, models.ErrItineraryNotFound) {
		t.Fatalf("expected ErrItineraryNotFound, got %v", err)
	}
	if store.Snapshot().BookDialogOpen {
		t.Error("dialog must stay closed")
	}
}

func TestBookChosen_RequiresOpenDialog(t *testing.T) {
	store := storeWith(directItinerary())
	svc := booking.NewService(&mockLedger{}, store, nil, booking.Config{})

	if _, err := svc.BookChosen(context.Background(), "Ada", "Lovelace"); !errors.Is(err, models.ErrNoFlightChosen) {
		t.Fatalf("expected ErrNoFlightChosen, got %v", err)
	}

	if _, err := svc.Select("5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.CloseDialog()
	if _, err := svc.BookChosen(context.Background(), "Ada", "Lovelace"); !errors.Is(err, models.ErrNoFlightChosen) {
		t.Fatalf("expected ErrNoFlightChosen after closing the dialog, got %v", err)
	}
}
