package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		SubjectPrefix: "scheduler.notifications",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Connect dials NATS with the configured reconnect policy.
func Connect(cfg NATSConfig) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("academic-scheduler"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: connect to nats: %w", err)
	}
	return conn, nil
}

// publisher is the part of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// natsMessage is the payload published for each class notification.
type natsMessage struct {
	MessageID   string    `json:"message_id"`
	EventType   string    `json:"event_type"`
	ClassID     string    `json:"class_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RelatedID   string    `json:"related_id,omitempty"`
	RelatedType string    `json:"related_type,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NATSPublisher mirrors class notifications onto <prefix>.<event>.
type NATSPublisher struct {
	conn   publisher
	prefix string
	now    func() time.Time
}

// NewNATSPublisher wraps an open connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return newNATSPublisher(conn, prefix, time.Now)
}

func newNATSPublisher(conn publisher, prefix string, now func() time.Time) *NATSPublisher {
	if prefix == "" {
		prefix = "scheduler.notifications"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, now: now}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(event string) string {
	return p.prefix + "." + event
}

// NotifyClass publishes one message for the class.
func (p *NATSPublisher) NotifyClass(ctx context.Context, n ClassNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(natsMessage{
		MessageID:   uuid.NewString(),
		EventType:   n.Event,
		ClassID:     n.ClassID,
		Title:       n.Title,
		Message:     n.Message,
		RelatedID:   n.RelatedID,
		RelatedType: n.RelatedType,
		Timestamp:   p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal nats message: %w", err)
	}
	if err := p.conn.Publish(p.Subject(n.Event), data); err != nil {
		return fmt.Errorf("notify: publish %s: %w", n.Event, err)
	}
	return nil
}
