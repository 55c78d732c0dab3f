package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateInput accepts either epoch seconds (number or numeric string) or a
// calendar date in YYYY-MM-DD form.
type DateInput string

func (d *DateInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DateInput(s)
		return nil
	}
	*d = DateInput(data)
	return nil
}

// Epoch returns the date as epoch seconds. Calendar dates resolve to UTC
// midnight.
func (d DateInput) Epoch() (int64, bool) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Unix(), true
	}
	return 0, false
}

type SearchRequest struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        DateInput `json:"date"`
	DirectOnly  bool      `json:"direct_only"`
}

type SearchCriteria struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        int64  `json:"date"`
	DirectOnly  bool   `json:"direct_only"`
}

// ToCriteria validates the request. All field problems are reported at once.
func (r SearchRequest) ToCriteria() (SearchCriteria, error) {
	errs := ValidationErrors{}
	origin := strings.TrimSpace(r.Origin)
	destination := strings.TrimSpace(r.Destination)

	if origin == "" {
		errs[FieldOrigin] = MsgMissingOrigin
	}
	if destination == "" {
		errs[FieldDestination] = MsgMissingDestination
	}
	date, ok := r.Date.Epoch()
	switch {
	case strings.TrimSpace(string(r.Date)) == "":
		errs[FieldDate] = MsgMissingDate
	case !ok:
		errs[FieldDate] = MsgInvalidDate
	}

	if len(errs) > 0 {
		return SearchCriteria{}, errs
	}

	return SearchCriteria{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		DirectOnly:  r.DirectOnly,
	}, nil
}

// Validate re-checks criteria built by hand rather than through ToCriteria.
func (c SearchCriteria) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(c.Origin) == "" {
		errs[FieldOrigin] = MsgMissingOrigin
	}
	if strings.TrimSpace(c.Destination) == "" {
		errs[FieldDestination] = MsgMissingDestination
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SelectRequest struct {
	ItineraryID string `json:"itinerary_id"`
}

type BookRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type BookingRequest struct {
	Itinerary Itinerary
	FirstName string
	LastName  string
}

func (r BookingRequest) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.FirstName) == "" {
		errs[FieldFirstName] = MsgMissingFirstName
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs[FieldLastName] = MsgMissingLastName
	}
	if len(r.Itinerary.Tickets) == 0 {
		errs[FieldItinerary] = MsgMissingItinerary
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationErrors maps a request field to a user-facing message.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return strings.Join(parts, "; ")
}

const (
	FieldOrigin      = "origin"
	FieldDestination = "destination"
	FieldDate        = "date"
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldItinerary   = "itinerary"
)

const (
	MsgMissingOrigin      = "Where are you travelling from?"
	MsgMissingDestination = "Where are you travelling to?"
	MsgMissingDate        = "Choose a date"
	MsgInvalidDate        = "Choose a valid date"
	MsgMissingFirstName   = "First name is required"
	MsgMissingLastName    = "Last name is required"
	MsgMissingItinerary   = "Choose a flight"
)
