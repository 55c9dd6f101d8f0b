package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestNew(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	ev, err := New(WaterLogged, "u1", map[string]float64{"amount": 250}, at)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, WaterLogged, ev.Type)
	assert.Equal(t, time.UTC, ev.At.Location())
	assert.JSONEq(t, `{"amount":250}`, string(ev.Data))

	wire, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(wire), `"user_id":"u1"`)

	again, err := New(WaterLogged, "u1", nil, at)
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, again.ID)
	assert.Nil(t, again.Data)
}

func TestMulti_TriesEveryPublisher(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}
	m := NewMulti(failing)
	m.Add(ok)

	ev, err := New(MealLogged, "u1", nil, time.Now())
	require.NoError(t, err)

	err = m.Publish(context.Background(), ev)
	assert.ErrorIs(t, err, failing.err)
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)

	require.NoError(t, m.Close())
	assert.True(t, failing.closed)
	assert.True(t, ok.closed)
}

func TestOpen(t *testing.T) {
	p, err := Open("none", "", "", nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)

	_, err = Open("kafka", "", "", nil)
	assert.Error(t, err)
}

func TestNATS_Subject(t *testing.T) {
	assert.Equal(t, "nutritrack.meal.logged", (&NATS{prefix: "nutritrack"}).Subject(MealLogged))
	assert.Equal(t, "meal.logged", (&NATS{}).Subject(MealLogged))
}

func TestNATS_PublishRoundTrip(t *testing.T) {
	url := os.Getenv("NUTRITRACK_TEST_NATS_URL")
	if url == "" {
		t.Skip("NUTRITRACK_TEST_NATS_URL not set")
	}
	pub, err := NewNATS(url, "test", nil)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	s, err := sub.SubscribeSync("test.>")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	ev, err := New(StreakUpdated, "u1", map[string]int{"streak": 2}, time.Now())
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), ev))

	msg, err := s.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "test.streak.updated", msg.Subject)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, ev.ID, got.ID)
}

func TestAMQP_Publish(t *testing.T) {
	url := os.Getenv("NUTRITRACK_TEST_AMQP_URL")
	if url == "" {
		t.Skip("NUTRITRACK_TEST_AMQP_URL not set")
	}
	pub, err := NewAMQP(url, "nutritrack-test", nil)
	require.NoError(t, err)
	defer pub.Close()

	ev, err := New(AchievementUnlocked, "u1", nil, time.Now())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, pub.Publish(ctx, ev))
}
