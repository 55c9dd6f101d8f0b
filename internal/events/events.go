// Package events publishes domain events (meal logged, streak updated,
// achievement unlocked and so on) to brokers and live connections.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	MealLogged          = "meal.logged"
	MealDeleted         = "meal.deleted"
	WaterLogged         = "water.logged"
	HydrationGoalMet    = "hydration.goal_met"
	StreakUpdated       = "streak.updated"
	AchievementUnlocked = "achievement.unlocked"
)

// Event is the envelope every publisher sends
type Event struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	UserID string          `json:"user_id"`
	Data   json.RawMessage `json:"data,omitempty"`
	At     time.Time       `json:"at"`
}

// New builds an event with a fresh id, marshaling data as its payload
func New(eventType, userID string, data interface{}, at time.Time) (Event, error) {
	ev := Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		UserID: userID,
		At:     at.UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// Publisher delivers events somewhere
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi fans an event out to several publishers. Every publisher is tried;
// failures are joined.
type Multi struct {
	mu   sync.RWMutex
	pubs []Publisher
}

// NewMulti creates a fan-out over pubs
func NewMulti(pubs ...Publisher) *Multi {
	return &Multi{pubs: pubs}
}

// Add registers another publisher
func (m *Multi) Add(p Publisher) {
	m.mu.Lock()
	m.pubs = append(m.pubs, p)
	m.mu.Unlock()
}

func (m *Multi) Publish(ctx context.Context, ev Event) error {
	m.mu.RLock()
	pubs := m.pubs
	m.mu.RUnlock()

	var errs []error
	for _, p := range pubs {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, p := range m.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the broker publisher named by driver: "none", "amqp" or "nats"
func Open(driver, url, topic string, logger *slog.Logger) (Publisher, error) {
	switch driver {
	case "", "none":
		return Nop{}, nil
	case "amqp":
		return NewAMQP(url, topic, logger)
	case "nats":
		return NewNATS(url, topic, logger)
	default:
		return nil, fmt.Errorf("unknown events driver: %s", driver)
	}
}
