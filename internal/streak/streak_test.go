package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		prior State
		today string
		want  State
	}{
		{
			name:  "first ever log",
			prior: State{},
			today: "2024-03-01",
			want:  State{Current: 1, LastLogDate: "2024-03-01"},
		},
		{
			name:  "same day is idempotent",
			prior: State{Current: 4, LastLogDate: "2024-03-01"},
			today: "2024-03-01",
			want:  State{Current: 4, LastLogDate: "2024-03-01"},
		},
		{
			name:  "consecutive day extends",
			prior: State{Current: 4, LastLogDate: "2024-03-01"},
			today: "2024-03-02",
			want:  State{Current: 5, LastLogDate: "2024-03-02"},
		},
		{
			name:  "consecutive across month end",
			prior: State{Current: 2, LastLogDate: "2024-02-29"},
			today: "2024-03-01",
			want:  State{Current: 3, LastLogDate: "2024-03-01"},
		},
		{
			name:  "gap resets",
			prior: State{Current: 9, LastLogDate: "2024-03-01"},
			today: "2024-03-04",
			want:  State{Current: 1, LastLogDate: "2024-03-04"},
		},
		{
			name:  "corrupt stored date resets",
			prior: State{Current: 3, LastLogDate: "yesterday"},
			today: "2024-03-04",
			want:  State{Current: 1, LastLogDate: "2024-03-04"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Advance(tt.prior, tt.today))
		})
	}
}

func TestAdvance_TwiceSameDay(t *testing.T) {
	s := Advance(State{Current: 1, LastLogDate: "2024-03-01"}, "2024-03-02")
	again := Advance(s, "2024-03-02")

	assert.Equal(t, 2, again.Current)
	assert.False(t, Changed(s, again))
}
