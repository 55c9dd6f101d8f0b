package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.MealLogged("AI")
	m.MealLogged("AI")
	m.MealLogged("manual")
	m.Water(250)
	m.Water(500)
	m.GoalMet()
	m.Unlocked("first_meal")
	m.SideEffectFailed("streak")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MealsLogged.WithLabelValues("AI")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MealsLogged.WithLabelValues("manual")))
	assert.Equal(t, 750.0, testutil.ToFloat64(m.WaterLogged))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HydrationGoalsMet))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AchievementsUnlocked.WithLabelValues("first_meal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideEffectFailures.WithLabelValues("streak")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MealLogged("AI")
		m.Water(1)
		m.GoalMet()
		m.Unlocked("x")
		m.SideEffectFailed("x")
		m.ObserveRead("x", time.Now())
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRead("dashboard", time.Now())
	m.GoalMet()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "nutritrack_hydration_goals_met_total 1")
	assert.Contains(t, string(body), `nutritrack_read_duration_seconds_count{view="dashboard"} 1`)
}
