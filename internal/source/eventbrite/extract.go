package eventbrite

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"event_hoarder/internal/dateparse"
	"event_hoarder/internal/domain"
)

// The map control label sometimes sticks to the preceding word
// ("United KingdomShow map"), so the match is anchored to the end only.
var showMapRe = regexp.MustCompile(`Show map$`)

// extractDetail pulls the record fields out of one detail page. Every field
// has a default; a missing element never fails the extraction. URL and Name
// are filled in by the caller from the listing anchor.
func extractDetail(doc *goquery.Document) (domain.EventRecord, []string) {
	rec := domain.EventRecord{
		Location:      domain.NoLocation,
		RawSchedule:   domain.NoSchedule,
		Summary:       domain.NoSummary,
		PriceText:     domain.DefaultPrice,
		OrganiserName: domain.NoOrganiser,
	}

	if text := cleanText(doc.Find("div.conversion-bar__panel-info").First()); text != "" {
		rec.PriceText = text
	}

	if loc := stripShowMap(cleanText(doc.Find("div.location-info__address").First())); loc != "" {
		rec.Location = loc
	} else if loc := stripShowMap(cleanText(doc.Find("div.location-info__address-text").First())); loc != "" {
		rec.Location = loc
	}

	if block := doc.Find("div.eds-text--left").First(); block.Length() > 0 {
		var parts []string
		block.Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := cleanText(p); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			rec.Summary = strings.Join(parts, " ")
		}
	} else if t := cleanText(doc.Find("p.summary").First()); t != "" {
		rec.Summary = t
	}

	if t := cleanText(doc.Find("span.date-info__full-datetime").First()); t != "" {
		rec.RawSchedule = t
	}

	// Several organiser blocks can appear on one page; the last one with a
	// name link wins.
	doc.Find("div.descriptive-organizer-info-heading-signal-container").Each(func(_ int, div *goquery.Selection) {
		link := div.Find("a.descriptive-organizer-info-mobile__name-link").First()
		if link.Length() == 0 {
			return
		}
		rec.OrganiserName = cleanText(link)
		if href, ok := link.Attr("href"); ok {
			rec.OrganiserLink = &href
		}
	})

	if t, ok := dateparse.Normalize(rec.RawSchedule); ok {
		rec.Start = domain.ResolvedTime(t)
	} else {
		rec.Start = domain.UnresolvedTime()
	}

	var tagList []string
	doc.Find("a.tags-link.listing-tag").Each(func(_ int, a *goquery.Selection) {
		if t := cleanText(a); t != "" {
			tagList = append(tagList, t)
		}
	})

	return rec, tagList
}

// cleanText flattens a selection's text to single-space separated words,
// mirroring get_text(separator=" ", strip=True) on nested markup.
func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func stripShowMap(s string) string {
	return strings.TrimSpace(showMapRe.ReplaceAllString(s, ""))
}
