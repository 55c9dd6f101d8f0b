package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

// AMQP publishes events as persistent JSON messages on a durable queue
type AMQP struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	confirm chan amqp.Confirmation
	mu      sync.Mutex
	// seq is the delivery tag of the last publish on channel
	seq     uint64
	logger  *slog.Logger
}

// NewAMQP dials url, enables publisher confirms and declares queueName
func NewAMQP(url, queueName string, logger *slog.Logger) (*AMQP, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	notifyClose := make(chan *amqp.Error, 1)
	conn.NotifyClose(notifyClose)
	go func() {
		if err := <-notifyClose; err != nil {
			logger.Error("AMQP connection closed", slog.String("error", err.Error()))
		}
	}()

	return &AMQP{
		conn:    conn,
		channel: ch,
		queue:   q,
		confirm: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		logger:  logger,
	}, nil
}

// Publish sends ev and waits for the broker to confirm it
func (a *AMQP) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.channel.Publish(
		"",
		a.queue.Name,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    ev.At,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	a.seq++

	// Confirms of earlier publishes abandoned on ctx are skipped
	for {
		select {
		case c, ok := <-a.confirm:
			if !ok {
				return fmt.Errorf("publish %s: channel closed", ev.Type)
			}
			if c.DeliveryTag < a.seq {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("publish %s: broker nacked delivery %d", ev.Type, c.DeliveryTag)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("publish %s: %w", ev.Type, ctx.Err())
		}
	}
}

func (a *AMQP) Close() error {
	if err := a.channel.Close(); err != nil {
		a.conn.Close()
		return err
	}
	return a.conn.Close()
}
