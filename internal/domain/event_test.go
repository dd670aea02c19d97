package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventTime_String(t *testing.T) {
	resolved := ResolvedTime(time.Date(2030, 6, 14, 19, 0, 0, 0, time.UTC))
	assert.Equal(t, "2030-06-14 19:00:00", resolved.String())

	assert.Equal(t, NoSchedule, UnresolvedTime().String())
}

func TestEventTime_Before(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, ResolvedTime(now.Add(-time.Hour)).Before(now))
	assert.False(t, ResolvedTime(now).Before(now))
	assert.False(t, ResolvedTime(now.Add(time.Hour)).Before(now))

	// Unresolved never compares as past.
	assert.False(t, UnresolvedTime().Before(now))
}

func TestEventRecord_Valid(t *testing.T) {
	assert.True(t, (&EventRecord{URL: "https://example.com/e/1"}).Valid())
	assert.False(t, (&EventRecord{Name: "no identity"}).Valid())
}

func TestEventRecord_PriceAmount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		amount float64
		ok     bool
	}{
		{"currency prefix", "£12.50", 12.50, true},
		{"from prefix", "From $25", 25, true},
		{"integer", "10", 10, true},
		{"free", DefaultPrice, 0, false},
		{"sold out", "Sold out", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &EventRecord{PriceText: tt.text}
			amount, ok := rec.PriceAmount()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestSearchParams_Key(t *testing.T) {
	tests := []struct {
		name   string
		params SearchParams
		want   string
	}{
		{
			"query and location",
			SearchParams{Query: "Jazz", Location: "London"},
			"jazz_london",
		},
		{
			"spaces become plus",
			SearchParams{Query: "live  jazz", Location: "New York"},
			"live+jazz_new+york",
		},
		{
			"day shorthand appended",
			SearchParams{Query: "jazz", Location: "london", Day: "this-weekend"},
			"jazz_london_this-weekend",
		},
		{
			"date range appended",
			SearchParams{Query: "jazz", Location: "london", StartDate: "2030-01-01", EndDate: "2030-01-31"},
			"jazz_london_2030-01-01_2030-01-31",
		},
		{
			"category search has empty query part",
			SearchParams{Category: "Music", Location: "Leeds"},
			"_leeds_music",
		},
		{
			"top events keyed by location alone",
			SearchParams{TopEvents: true, Location: "New York"},
			"all_top_events_new+york",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Key())
		})
	}
}

func TestSearchParams_KeyIgnoresPage(t *testing.T) {
	a := SearchParams{Query: "jazz", Location: "london", Page: 1}
	b := SearchParams{Query: "jazz", Location: "london", Page: 7}
	assert.Equal(t, a.Key(), b.Key())
}
