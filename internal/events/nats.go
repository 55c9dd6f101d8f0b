package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS publishes events on subject "<prefix>.<event type>"
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATS connects to url with reconnects enabled
func NewNATS(url, prefix string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("nutritrack"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{conn: conn, prefix: prefix, logger: logger}, nil
}

// Subject returns the subject an event type is published on
func (n *NATS) Subject(eventType string) string {
	if n.prefix == "" {
		return eventType
	}
	return n.prefix + "." + eventType
}

// Publish is fire-and-forget; ctx is only checked before sending
func (n *NATS) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.conn.Publish(n.Subject(ev.Type), data)
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
