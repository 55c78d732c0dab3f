package sorting

import (
	"sort"
	"strings"

	"github.com/dharmasatrya/flightbooking/internal/models"
	"github.com/dharmasatrya/flightbooking/pkg/currency"
)

type Key string

const (
	Cheapest Key = "cheapest"
	Shortest Key = "shortest"
)

const DefaultKey = Cheapest

// ParseKey maps user input to a known key. Anything unrecognized sorts by
// price.
func ParseKey(s string) Key {
	switch Key(strings.ToLower(strings.TrimSpace(s))) {
	case Shortest:
		return Shortest
	default:
		return Cheapest
	}
}

// Sort returns a sorted copy of itineraries. Ties on the primary key fall
// back to the other key and then to the itinerary id, so the order is total
// and re-sorting is a no-op.
func Sort(itineraries []models.Itinerary, key Key) []models.Itinerary {
	sorted := make([]models.Itinerary, len(itineraries))
	copy(sorted, itineraries)
	if len(sorted) < 2 {
		return sorted
	}

	switch ParseKey(string(key)) {
	case Shortest:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			if a.Duration() != b.Duration() {
				return a.Duration() < b.Duration()
			}
			if a.PriceTotal != b.PriceTotal {
				return a.PriceTotal < b.PriceTotal
			}
			return a.ID() < b.ID()
		})

	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			if a.PriceTotal != b.PriceTotal {
				return a.PriceTotal < b.PriceTotal
			}
			if a.Duration() != b.Duration() {
				return a.Duration() < b.Duration()
			}
			return a.ID() < b.ID()
		})
	}

	return sorted
}

// Present sorts itineraries and attaches the display fields.
func Present(itineraries []models.Itinerary, key Key, f currency.Formatter) []models.ItineraryView {
	sorted := Sort(itineraries, key)

	views := make([]models.ItineraryView, len(sorted))
	for i, it := range sorted {
		views[i] = View(it, f)
	}
	return views
}

func View(it models.Itinerary, f currency.Formatter) models.ItineraryView {
	return models.ItineraryView{
		ID:              it.ID(),
		Stops:           it.Stops,
		PriceTotal:      it.PriceTotal,
		PriceFormatted:  f.Format(it.PriceTotal),
		DurationSeconds: it.Duration(),
		Tickets:         it.Tickets,
	}
}
