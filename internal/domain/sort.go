package domain

import (
	"sort"
	"strings"
	"time"
)

// Sorted views over collected records. Each returns a fresh slice; the input
// is never reordered, so storage order stays intact for other views.

// FilterFree returns the records whose price text marks them as free or
// donation-based.
func FilterFree(records []EventRecord) []EventRecord {
	var out []EventRecord
	for _, rec := range records {
		switch strings.ToLower(rec.PriceText) {
		case "free", "donation":
			out = append(out, rec)
		}
	}
	return out
}

// SortCheapestFirst returns priced records ordered by ascending amount.
// Free and sold-out records carry no comparable amount and are dropped.
func SortCheapestFirst(records []EventRecord) []EventRecord {
	out := filterPriced(records, "sold out", "free")
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].PriceAmount()
		b, _ := out[j].PriceAmount()
		return a < b
	})
	return out
}

// SortMostExpensiveFirst returns priced records ordered by descending amount,
// dropping free and donation-based records.
func SortMostExpensiveFirst(records []EventRecord) []EventRecord {
	out := filterPriced(records, "free", "donation")
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].PriceAmount()
		b, _ := out[j].PriceAmount()
		return a > b
	})
	return out
}

// SortSoonestFirst returns upcoming records ordered by start time. Records
// already started and records whose start never resolved are dropped.
func SortSoonestFirst(records []EventRecord, now time.Time) []EventRecord {
	var out []EventRecord
	for _, rec := range records {
		if rec.Start.Resolved && rec.Start.Time.After(now) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Time.Before(out[j].Start.Time)
	})
	return out
}

func filterPriced(records []EventRecord, excluded ...string) []EventRecord {
	var out []EventRecord
	for _, rec := range records {
		text := strings.ToLower(rec.PriceText)
		skip := false
		for _, ex := range excluded {
			if text == ex {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, rec)
		}
	}
	return out
}
