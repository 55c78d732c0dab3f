package session

import (
	"sync"

	"github.com/dharmasatrya/flightbooking/internal/models"
)

// Store owns the current State. All changes go through Dispatch, which
// applies events one at a time.
type Store struct {
	mu    sync.Mutex
	state State
}

func NewStore() *Store {
	return &Store{state: Initial()}
}

// Dispatch applies e and reports whether it was accepted. Events from a
// superseded session are dropped and report false.
func (s *Store) Dispatch(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if Stale(s.state, e) {
		return false
	}
	s.state = Reduce(s.state, e)
	return true
}

// Snapshot returns a copy of the current state that is safe to read while
// further events are applied.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	snap.Itineraries = append([]models.Itinerary(nil), s.state.Itineraries...)
	return snap
}

// Find returns the itinerary with the given id from the active session.
func (s *Store) Find(id string) (models.Itinerary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.state.Itineraries {
		if it.ID() == id {
			return it, true
		}
	}
	return models.Itinerary{}, false
}
