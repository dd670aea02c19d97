package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CanonicalRoundTrip(t *testing.T) {
	want := time.Date(2024, 10, 19, 16, 30, 0, 0, time.UTC)

	got, ok := Normalize(Format(want))

	require.True(t, ok)
	assert.Equal(t, "2024-10-19 16:30:00", Format(got))
}

func TestNormalize_ClampsInvalidDay(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"leap february", "2024-02-31 10:00:00", "2024-02-29 10:00:00"},
		{"thirty day month", "2024-09-31 12:00:00", "2024-09-30 12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestNormalize_StripsWeekdayAndNoise(t *testing.T) {
	got, ok := Normalize("Starts on Monday, October 21, 2024 GMT")

	require.True(t, ok)
	assert.Equal(t, "2024-10-21 00:00:00", Format(got))
}

func TestNormalize_YearlessDefaultsToCurrentYear(t *testing.T) {
	got, ok := Normalize("Saturday, June 14 · 7 - 10pm GMT+1")

	require.True(t, ok)
	assert.Equal(t, time.Now().Year(), got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 14, got.Day())
}

func TestNormalize_RangeBiasesTowardLastMonth(t *testing.T) {
	got, ok := Normalize("June 29 2025 - July 1 2025")

	require.True(t, ok)
	assert.Equal(t, time.July, got.Month())
	assert.Equal(t, 29, got.Day())
}

func TestNormalize_Unresolved(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"sentinel", "No date and time available"},
		{"empty", ""},
		{"whitespace", "   "},
		{"garbage", "coming soon!!!"},
		{"unrecoverable date", "2024-13-45 10:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Normalize(tt.raw)
			assert.False(t, ok)
		})
	}
}

func TestNormalize_MonthNameNotDoubleStripped(t *testing.T) {
	// "May" inside a longer word must survive the month pass and the weekday
	// pass must not chew into month names.
	got, ok := Normalize("May 4 2025")

	require.True(t, ok)
	assert.Equal(t, "2025-05-04 00:00:00", Format(got))
}
