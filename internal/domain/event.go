package domain

import (
	"regexp"
	"strconv"
	"time"
)

// Sentinel values used when a detail page is missing an element. These are
// display defaults, not magic markers: downstream logic branches on typed
// state (EventTime.Resolved, nil OrganiserLink), never on these strings.
const (
	NoLocation   = "No location available"
	NoSchedule   = "No date and time available"
	NoSummary    = "No summary available"
	NoOrganiser  = "No organiser available"
	DefaultPrice = "Free"
)

// TimeLayout is the canonical storage/display form for normalized start
// times. Lexicographic order on formatted values matches chronological order.
const TimeLayout = "2006-01-02 15:04:05"

// EventTime is a start time that may be unresolved. Raw schedule text on a
// page is free-form and sometimes unparseable; an unresolved EventTime keeps
// that fact explicit instead of defaulting to a bogus timestamp.
type EventTime struct {
	Time     time.Time
	Resolved bool
}

func ResolvedTime(t time.Time) EventTime {
	return EventTime{Time: t, Resolved: true}
}

func UnresolvedTime() EventTime {
	return EventTime{}
}

// String returns the canonical form, or the schedule sentinel when
// unresolved.
func (e EventTime) String() string {
	if !e.Resolved {
		return NoSchedule
	}
	return e.Time.Format(TimeLayout)
}

// Before reports whether the event starts strictly before t. An unresolved
// time is never before anything; callers that prune unresolved records do so
// explicitly.
func (e EventTime) Before(t time.Time) bool {
	return e.Resolved && e.Time.Before(t)
}

// EventRecord is one discovered event. URL is the identity key: it is the
// canonical source link, unique across the store, and the only dedup key.
type EventRecord struct {
	ID            int64
	URL           string
	Name          string
	Location      string
	RawSchedule   string
	Start         EventTime
	Summary       string
	PriceText     string
	OrganiserName string
	OrganiserLink *string
	SearchKey     string
	SavedAt       time.Time
}

// Valid reports whether the record may be stored. Identity is mandatory;
// everything else has a sentinel default.
func (r *EventRecord) Valid() bool {
	return r.URL != ""
}

var priceAmountRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// PriceAmount extracts a numeric amount from the free-form price text. It is
// a derived view for sorting; the stored field stays textual ("Free",
// "£12.50", "Sold out"). Texts with no digits report zero and false.
func (r *EventRecord) PriceAmount() (float64, bool) {
	m := priceAmountRe.FindString(r.PriceText)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
