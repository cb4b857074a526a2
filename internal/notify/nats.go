package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON body published for every workflow notification.
type Event struct {
	EventType    string    `json:"event_type"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	ActorID      string    `json:"actor_id"`
	Recipients   []string  `json:"recipients"`
	Message      string    `json:"message"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NATSPublisher publishes events on <prefix>.<notification type>.
type NATSPublisher struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func NewNATSPublisher(pub Publisher, prefix string, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "notifications.invoices"
	}
	return &NATSPublisher{pub: pub, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return nats.Connect(url,
		nats.Name("invoice-tracker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("notify.nats.disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("notify.nats.reconnected", "url", c.ConnectedUrl())
		}),
	)
}

func (p *NATSPublisher) Notify(_ context.Context, msg Message) error {
	if p.pub == nil || len(msg.Recipients) == 0 {
		return nil
	}
	recipients := make([]string, len(msg.Recipients))
	for i, r := range msg.Recipients {
		recipients[i] = r.String()
	}
	ev := Event{
		EventType:    string(msg.Type),
		ResourceType: "invoice",
		ResourceID:   msg.InvoiceID.String(),
		Recipients:   recipients,
		Message:      msg.Text,
		OccurredAt:   time.Now().UTC(),
	}
	if msg.ActorID != uuid.Nil {
		ev.ActorID = msg.ActorID.String()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := p.prefix + "." + string(msg.Type)
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("notify.nats.published", "subject", subject, "invoice_id", msg.InvoiceID, "recipients", len(recipients))
	return nil
}
