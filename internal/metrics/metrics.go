// Package metrics holds the Prometheus collectors for the tracker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nutritrack"

// Metrics is the set of collectors recorded by the service layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	MealsLogged          *prometheus.CounterVec
	WaterLogged          prometheus.Counter
	HydrationGoalsMet    prometheus.Counter
	AchievementsUnlocked *prometheus.CounterVec
	SideEffectFailures   *prometheus.CounterVec
	ReadLatency          *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics()
	reg.MustRegister(
		m.MealsLogged,
		m.WaterLogged,
		m.HydrationGoalsMet,
		m.AchievementsUnlocked,
		m.SideEffectFailures,
		m.ReadLatency,
		collectors.NewGoCollector(),
	)
	m.gatherer = reg
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		MealsLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_logged_total",
			Help:      "Meals written to the log store.",
		}, []string{"source"}),
		WaterLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "water_logged_ml_total",
			Help:      "Millilitres of water logged.",
		}),
		HydrationGoalsMet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_goals_met_total",
			Help:      "User-days on which the daily water goal was crossed.",
		}),
		AchievementsUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked.",
		}, []string{"achievement"}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Streak, achievement or event updates that failed after the primary write succeeded.",
		}, []string{"effect"}),
		ReadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_duration_seconds",
			Help:      "Latency of aggregate reads.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) MealLogged(source string) {
	if m != nil {
		m.MealsLogged.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) Water(amount float64) {
	if m != nil {
		m.WaterLogged.Add(amount)
	}
}

func (m *Metrics) GoalMet() {
	if m != nil {
		m.HydrationGoalsMet.Inc()
	}
}

func (m *Metrics) Unlocked(achievementID string) {
	if m != nil {
		m.AchievementsUnlocked.WithLabelValues(achievementID).Inc()
	}
}

// SideEffectFailed counts a best-effort update that did not land
func (m *Metrics) SideEffectFailed(effect string) {
	if m != nil {
		m.SideEffectFailures.WithLabelValues(effect).Inc()
	}
}

// ObserveRead records the duration since start under view
func (m *Metrics) ObserveRead(view string, start time.Time) {
	if m != nil {
		m.ReadLatency.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}
