// Package export writes finalized result sets to flat files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"event_hoarder/internal/domain"
)

var csvHeader = []string{
	"Search Key", "Name", "Location", "Date & Time", "Start",
	"Price", "Summary", "URL", "Organiser", "Organiser Link",
}

// WriteCSV writes the records to path and returns the path. The file is
// truncated if it already exists.
func WriteCSV(records []domain.EventRecord, path string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		link := ""
		if rec.OrganiserLink != nil {
			link = *rec.OrganiserLink
		}
		row := []string{
			rec.SearchKey,
			rec.Name,
			rec.Location,
			rec.RawSchedule,
			rec.Start.String(),
			rec.PriceText,
			rec.Summary,
			rec.URL,
			rec.OrganiserName,
			link,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write record %s: %w", rec.URL, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush: %w", err)
	}
	return path, nil
}
