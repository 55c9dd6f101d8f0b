// Package streak implements the contiguous-day meal logging streak.
package streak

import "github.com/franckalain/nutritrack/internal/calendar"

// State is a user's streak as stored on their profile
type State struct {
	Current     int    `json:"current_streak"`
	LastLogDate string `json:"last_log_date,omitempty"` // empty when the user never logged
}

// Advance applies a meal-logged event on date today to the stored state.
//
// A second log on the same day changes nothing, a log on the day after
// LastLogDate extends the streak, anything else (a gap, the first log ever,
// or an unparseable stored date) starts a new streak of 1.
func Advance(prior State, today string) State {
	if prior.LastLogDate == today {
		return prior
	}

	if prior.LastLogDate != "" {
		if next, err := calendar.AddDays(prior.LastLogDate, 1); err == nil && next == today {
			return State{Current: prior.Current + 1, LastLogDate: today}
		}
	}

	return State{Current: 1, LastLogDate: today}
}

// Changed reports whether applying the event produced a new state
func Changed(prior, next State) bool {
	return prior != next
}
