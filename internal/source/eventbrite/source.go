// Package eventbrite scrapes event listings and detail pages from
// Eventbrite-shaped markup.
package eventbrite

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"event_hoarder/internal/domain"
	"event_hoarder/internal/tags"
)

const SourceName = "Eventbrite"

// Config holds scrape source configuration.
type Config struct {
	BaseURL        string
	Region         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DetailWorkers  int
}

// FetchError is a typed fetch failure: transport error, timeout or non-2xx.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source fetches listing pages and fans detail-page fetches out over a
// bounded worker pool.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	region         string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	workers        int
	logger         *slog.Logger
}

// New creates a new Eventbrite source.
func New(cfg Config, logger *slog.Logger) *Source {
	workers := cfg.DetailWorkers
	if workers < 1 {
		workers = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		region:         cfg.Region,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		workers:        workers,
		logger:         logger.With("source", SourceName),
	}
}

// Name returns the human-readable source name.
func (s *Source) Name() string {
	return SourceName
}

type listingItem struct {
	url  string
	name string
}

// FetchPage fetches one listing page, dedupes its anchors by URL, extracts a
// record per surviving item from its detail page and counts tags across the
// page. MorePages is a heuristic: true iff the listing yielded any anchors; a
// later page may still come back empty. A single item's detail-fetch failure
// skips that item, never the page.
func (s *Source) FetchPage(ctx context.Context, params domain.SearchParams) (*domain.PageResult, error) {
	doc, err := s.fetchDocument(ctx, s.listingURL(params))
	if err != nil {
		return nil, fmt.Errorf("fetch listing page %d: %w", params.Page, err)
	}

	var items []listingItem
	seen := make(map[string]struct{})
	anchors := 0
	doc.Find("a.event-card-link").Each(func(_ int, sel *goquery.Selection) {
		anchors++
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		name := strings.TrimSpace(strings.ReplaceAll(sel.AttrOr("aria-label", ""), "View", ""))
		items = append(items, listingItem{url: href, name: name})
	})

	s.logger.Debug("parsed listing page",
		"page", params.Page,
		"anchors", anchors,
		"unique", len(items),
	)

	type detail struct {
		rec     domain.EventRecord
		tagList []string
		err     error
	}

	// Detail fetches are independent reads; results keep listing order.
	results := make([]detail, len(items))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item listingItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			detailDoc, err := s.fetchDocument(ctx, item.url)
			if err != nil {
				results[i] = detail{err: err}
				return
			}
			rec, tagList := extractDetail(detailDoc)
			rec.URL = item.url
			rec.Name = item.name
			results[i] = detail{rec: rec, tagList: tagList}
		}(i, item)
	}
	wg.Wait()

	page := &domain.PageResult{MorePages: anchors > 0}
	agg := tags.New()
	for i, res := range results {
		if res.err != nil {
			page.Failed++
			s.logger.Warn("skipping event, detail fetch failed",
				"url", items[i].url,
				"error", res.err,
			)
			continue
		}
		page.Records = append(page.Records, res.rec)
		for _, tag := range res.tagList {
			agg.Add(tag)
		}
	}
	page.Tags = agg.Snapshot()

	return page, nil
}

// listingURL builds the search URL from the parameters. Category searches use
// the "<category>--events" path segment, quick searches the free-text one and
// top-events searches the location's bare "events" listing.
func (s *Source) listingURL(p domain.SearchParams) string {
	var path strings.Builder
	fmt.Fprintf(&path, "%s/d/%s--%s/", s.baseURL, s.region, pathTerm(p.Location))
	switch {
	case p.TopEvents:
		path.WriteString("events/")
	case p.Category != "":
		fmt.Fprintf(&path, "%s--events--%s/", pathTerm(p.Category), p.Day)
	default:
		fmt.Fprintf(&path, "events--%s/%s/", p.Day, pathTerm(p.Query))
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.StartDate != "" {
		q.Set("start_date", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("end_date", p.EndDate)
	}
	return path.String() + "?" + q.Encode()
}

func pathTerm(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "%20")
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		doc, err = s.doRequest(ctx, pageURL)
		if err == nil {
			return doc, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"url", pageURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "EventHoarder/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
