package models

import "time"

type TransactionOutcome struct {
	TxHash    string    `json:"tx_hash"`
	BookingID uint64    `json:"booking_id"`
	TicketIDs [2]uint64 `json:"ticket_ids"`
	Value     uint64    `json:"value"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BookedAt  time.Time `json:"booked_at"`
}

type ItineraryView struct {
	ID              string   `json:"id"`
	Stops           int      `json:"stops"`
	PriceTotal      uint64   `json:"price_total"`
	PriceFormatted  string   `json:"price_formatted"`
	DurationSeconds int64    `json:"duration_seconds"`
	Tickets         []Ticket `json:"tickets"`
}

type SearchMetadata struct {
	TotalResults int   `json:"total_results"`
	Pending      int   `json:"pending_resolutions"`
	Failed       int   `json:"failed_resolutions"`
	SearchTimeMs int64 `json:"search_time_ms,omitempty"`
}

type SearchResponse struct {
	SessionID   string          `json:"session_id"`
	Criteria    *SearchCriteria `json:"search_criteria,omitempty"`
	Ready       bool            `json:"ready"`
	Sort        string          `json:"sort"`
	Metadata    SearchMetadata  `json:"metadata"`
	Itineraries []ItineraryView `json:"itineraries"`
	Message     string          `json:"message,omitempty"`
}

type StateResponse struct {
	SessionID         string              `json:"session_id"`
	Ready             bool                `json:"ready"`
	Sort              string              `json:"sort"`
	TotalResults      int                 `json:"total_results"`
	BookDialogOpen    bool                `json:"book_dialog_open"`
	FlightChosen      *ItineraryView      `json:"flight_chosen,omitempty"`
	SuccessDialogOpen bool                `json:"success_dialog_open"`
	LastBooking       *TransactionOutcome `json:"last_booking,omitempty"`
}

type BookingResponse struct {
	Outcome TransactionOutcome `json:"outcome"`
	Value   string             `json:"value_formatted"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    int               `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const MsgNoResults = "Sorry, no flights found. Try searching non-direct flights!"
