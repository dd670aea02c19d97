package domain

import (
	"strings"
	"time"
)

// SearchParams carries one listing-page search request. Query and Location
// are free text; Day is a site shorthand ("today", "tomorrow",
// "this-weekend"); StartDate/EndDate are explicit YYYY-MM-DD bounds; Category
// is a category slug; TopEvents requests the location's curated top listing
// instead of a filtered search. Page starts at 1.
type SearchParams struct {
	Query     string
	Location  string
	Day       string
	StartDate string
	EndDate   string
	Category  string
	TopEvents bool
	Page      int
}

// Key returns the normalized search key identifying a result set. Two
// requests with the same key are the same search regardless of page number.
func (p SearchParams) Key() string {
	if p.TopEvents {
		return "all_top_events_" + normalizeTerm(p.Location)
	}
	parts := []string{
		normalizeTerm(p.Query),
		normalizeTerm(p.Location),
	}
	for _, extra := range []string{p.Day, p.StartDate, p.EndDate, normalizeTerm(p.Category)} {
		if extra != "" {
			parts = append(parts, extra)
		}
	}
	return strings.Join(parts, "_")
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "+"))
}

// PageResult is what one listing page yields: records in listing order
// (already deduped within the page), tag occurrences, a continuation
// heuristic and the count of items skipped on fetch failure.
type PageResult struct {
	Records   []EventRecord
	Tags      []TagCount
	MorePages bool
	Failed    int
}

// TagCount is one tag with its occurrence count, ordered by first sighting
// when produced by an aggregator snapshot.
type TagCount struct {
	Tag   string
	Count int
}

// SearchStats holds statistics about one search or fetch-more pass.
type SearchStats struct {
	SearchKey string
	Fetched   int
	New       int
	Updated   int
	Dropped   int
	Errors    int
	Published int
	Duration  time.Duration
}
