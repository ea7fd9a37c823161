package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("20270601")
	require.NoError(t, err)
	assert.Equal(t, 2027, d.Year())
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 1, d.Day())

	_, err = ParseDate("2027-06-01")
	assert.Error(t, err)
	_, err = ParseDate("20271301")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2027, 6, 1, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "20270601", FormatDate(d))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("20300215")
	require.NoError(t, err)
	assert.Equal(t, "20300215", FormatDate(d))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2027, 6, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2027, 6, 1, 23, 59, 0, 0, time.UTC)
	nextDay := time.Date(2027, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 50, DaysBetween(a, a.AddDate(0, 0, 50)))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, -10, DaysBetween(a, a.AddDate(0, 0, -10)))
	// the year from mid-2027 crosses the 2028 leap day
	assert.Equal(t, 366, DaysBetween(a, a.AddDate(1, 0, 0)))
}
