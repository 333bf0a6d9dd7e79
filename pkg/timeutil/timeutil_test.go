package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	late := time.Date(2025, 3, 10, 23, 45, 12, 0, SaoPauloTZ)
	start := StartOfDay(late, SaoPauloTZ)

	assert.Equal(t, 2025, start.Year())
	assert.Equal(t, time.March, start.Month())
	assert.Equal(t, 10, start.Day())
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
}

func TestStartOfDay_CrossesUTCBoundary(t *testing.T) {
	// 01:30 UTC is still the previous day in São Paulo (22:30 local).
	utc := time.Date(2025, 3, 11, 1, 30, 0, 0, time.UTC)
	start := StartOfDay(utc, SaoPauloTZ)

	assert.Equal(t, 10, start.Day())
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{"same day", Date(2025, 3, 10), Date(2025, 3, 10).Add(20 * time.Hour), 0},
		{"next day", Date(2025, 3, 10), Date(2025, 3, 11), 1},
		{"one minute across midnight", Date(2025, 3, 11).Add(-time.Minute), Date(2025, 3, 11), 1},
		{"a week", Date(2025, 3, 3), Date(2025, 3, 10), 7},
		{"backwards", Date(2025, 3, 12), Date(2025, 3, 10), -2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysBetween(tc.a, tc.b, SaoPauloTZ))
		})
	}
}

func TestSameDay(t *testing.T) {
	morning := Date(2025, 3, 10).Add(8 * time.Hour)
	night := Date(2025, 3, 10).Add(23 * time.Hour)

	assert.True(t, SameDay(morning, night, SaoPauloTZ))
	assert.False(t, SameDay(morning, night.Add(2*time.Hour), SaoPauloTZ))
}
