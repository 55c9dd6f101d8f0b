package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeek_SpansSevenDaysAscending(t *testing.T) {
	days, err := Week("2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024-02-25", "2024-02-26", "2024-02-27", "2024-02-28",
		"2024-02-29", "2024-03-01", "2024-03-02",
	}, days)
}

func TestWeek_InvalidReference(t *testing.T) {
	_, err := Week("03/02/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParse_InvalidDate(t *testing.T) {
	for _, date := range []string{"", "bad", "2024-13-01", "2023-02-29"} {
		_, err := Parse(date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}
	_, err := AddDays("tomorrow", 1)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAddDays(t *testing.T) {
	d, err := AddDays("2023-12-31", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", d)

	d, err = AddDays("2024-03-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d)
}

func TestToday_UsesLocation(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	assert.Equal(t, "2024-05-01", Today(now, time.UTC))
	assert.Equal(t, "2024-05-02", Today(now, tokyo))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("2024-02-29"))
	assert.False(t, Valid("2023-02-29"))
	assert.False(t, Valid(""))
}
