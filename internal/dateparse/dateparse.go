// Package dateparse normalizes the free-form schedule text scraped from
// detail pages ("Saturday, June 14 · 7 - 10pm GMT+1") into a canonical
// machine-sortable timestamp.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	fuzzy "github.com/araddon/dateparse"

	"event_hoarder/internal/domain"
)

var (
	// Full names first so "Monday" is never left as "day" by an abbreviation
	// match; \b keeps month names with weekday-like prefixes intact.
	weekdayRe = regexp.MustCompile(`\b(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|Mon|Tue|Wed|Thu|Fri|Sat|Sun)\b`)

	monthRe = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\b`)

	monthAbbr = map[string]string{
		"January": "Jan", "February": "Feb", "March": "Mar", "April": "Apr",
		"May": "May", "June": "Jun", "July": "Jul", "August": "Aug",
		"September": "Sep", "October": "Oct", "November": "Nov", "December": "Dec",
	}

	// Calendar order, matching the month-range bias scan below.
	monthAbbrs = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

	abbrRe = regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\b`)
)

// noise tokens stripped before parsing: the "Starts on" prefix, timezone
// markers, the "+1" day-rollover marker, the interpunct separator and the
// literal range separator. GMT+1 goes before GMT so the +1 is not orphaned.
var noiseReplacements = []struct{ old, new string }{
	{"Starts on", ""},
	{"GMT+1", ""},
	{"GMT", ""},
	{"+1", ""},
	{"·", ""},
	{" - ", " "},
	{"pm", "PM"},
	{"am", "AM"},
}

// Normalize converts raw schedule text into a start time. ok is false when
// the text is empty, carries the unavailable sentinel, or survives neither
// the fuzzy parse nor the day-clamp recovery. Pure function.
func Normalize(raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" || strings.Contains(raw, domain.NoSchedule) {
		return time.Time{}, false
	}

	s := weekdayRe.ReplaceAllString(raw, "")
	s = monthRe.ReplaceAllStringFunc(s, func(m string) string { return monthAbbr[m] })
	for _, r := range noiseReplacements {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	// Commas go first: a weekday removal can leave a lone "," token, and the
	// fuzzy parser rejects the leading space it would collapse into.
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, ",", "")), " ")

	// A date range like "Jun 28 - Jul 1" leaves two month names. Bias toward
	// the end of the range: replace the first occurrence of the
	// earliest-in-calendar month with the latest one found.
	var found []string
	for _, m := range monthAbbrs {
		if isWholeMonth(s, m) {
			found = append(found, m)
		}
	}
	if len(found) > 1 {
		s = strings.Replace(s, found[0], found[len(found)-1], 1)
	}

	// Trailing range residue past "date time" is dropped.
	parts := strings.Fields(s)
	if len(parts) > 3 {
		s = strings.Join(parts[:3], " ")
	}

	t, err := fuzzy.ParseAny(s)
	if err != nil {
		return clampAndRetry(s)
	}
	return withCurrentYear(t), true
}

// withCurrentYear fills in the current year for yearless schedules
// ("Saturday, June 14 · 7 - 10pm"), which otherwise parse with year zero and
// would read as millennia in the past.
func withCurrentYear(t time.Time) time.Time {
	if t.Year() != 0 {
		return t
	}
	return t.AddDate(time.Now().Year(), 0, 0)
}

// Format renders t in the canonical form round-tripped by Normalize.
func Format(t time.Time) string {
	return t.Format(domain.TimeLayout)
}

func isWholeMonth(s, m string) bool {
	for _, loc := range abbrRe.FindAllString(s, -1) {
		if loc == m {
			return true
		}
	}
	return false
}

// clampAndRetry handles year-month-day strings whose day field exceeds the
// month's last valid day (a scrape typo like "2024-02-31"): clamp the day and
// retry. Only reached after the fuzzy parse has failed.
func clampAndRetry(s string) (time.Time, bool) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return time.Time{}, false
	}

	dateFields := strings.Split(parts[0], "-")
	if len(dateFields) != 3 {
		return time.Time{}, false
	}
	year, err1 := strconv.Atoi(dateFields[0])
	month, err2 := strconv.Atoi(dateFields[1])
	day, err3 := strconv.Atoi(dateFields[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	if last := lastDayOfMonth(year, time.Month(month)); day > last {
		day = last
	}

	t, err := fuzzy.ParseAny(fmt.Sprintf("%d-%02d-%02d %s", year, month, day, parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
