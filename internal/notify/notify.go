package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dharmasatrya/flightbooking/internal/models"
)

// Notifier receives the outcome of every successful booking for any
// post-processing outside this service.
type Notifier interface {
	BookingComplete(ctx context.Context, outcome models.TransactionOutcome) error
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BookingComplete(ctx context.Context, outcome models.TransactionOutcome) error {
	n.logger.InfoContext(ctx, "booking complete",
		"booking_id", outcome.BookingID,
		"tx_hash", outcome.TxHash,
		"ticket_ids", outcome.TicketIDs,
		"value", outcome.Value,
	)
	return nil
}

const DefaultSubject = "flights.bookings.completed"

// NATSNotifier publishes booking outcomes as JSON on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("flightbooking"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

func (n *NATSNotifier) BookingComplete(ctx context.Context, outcome models.TransactionOutcome) error {
	data, err := Encode(outcome)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject, data)
}

// Close drains and closes the connection.
func (n *NATSNotifier) Close() {
	_ = n.conn.Drain()
}

type Event struct {
	Type    string                    `json:"type"`
	Outcome models.TransactionOutcome `json:"outcome"`
}

func Encode(outcome models.TransactionOutcome) ([]byte, error) {
	return json.Marshal(Event{Type: "BookingCompleted", Outcome: outcome})
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, outcome models.TransactionOutcome) error

func (f Func) BookingComplete(ctx context.Context, outcome models.TransactionOutcome) error {
	return f(ctx, outcome)
}
