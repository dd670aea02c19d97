package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"event_hoarder/internal/cache"
	"event_hoarder/internal/domain"
)

// SearchService orchestrates one search: cache lookup, listing-page fetch,
// validation, idempotent upsert into the store, tag aggregation and
// publishing. Records are mutated only through the store's upsert; the
// cached result set holds what was fetched, in discovery order.
type SearchService struct {
	source    Source
	store     EventStore
	txManager TransactionManager
	publisher Publisher
	cache     *cache.Cache
	logger    *slog.Logger
}

func NewSearchService(
	source Source,
	store EventStore,
	txManager TransactionManager,
	publisher Publisher,
	resultCache *cache.Cache,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		source:    source,
		store:     store,
		txManager: txManager,
		publisher: publisher,
		cache:     resultCache,
		logger:    logger.With("source", source.Name()),
	}
}

// Search returns the result set for the given parameters. A cache hit
// short-circuits all network fetches for the key; on a miss the first listing
// page is fetched, persisted and memoized.
func (s *SearchService) Search(ctx context.Context, params domain.SearchParams) (*cache.ResultSet, *domain.SearchStats, error) {
	key := params.Key()

	if set, ok := s.cache.Get(key); ok {
		s.logger.Info("serving cached result set",
			"search_key", key,
			"records", len(set.Records),
		)
		return set, &domain.SearchStats{SearchKey: key, Fetched: len(set.Records)}, nil
	}

	set := cache.NewResultSet()
	stats, _, err := s.fetchInto(ctx, key, params, set)
	if err != nil {
		return nil, nil, err
	}

	s.cache.Put(key, set)
	return set, stats, nil
}

// FetchMore fetches the next listing page for an already-searched key and
// appends the results to its set. Returns the number of records appended;
// zero means the search is exhausted.
func (s *SearchService) FetchMore(ctx context.Context, params domain.SearchParams) (int, error) {
	key := params.Key()

	set, ok := s.cache.Get(key)
	if !ok {
		return 0, fmt.Errorf("no result set for search key %q", key)
	}
	if !set.More {
		return 0, nil
	}

	_, added, err := s.fetchInto(ctx, key, params, set)
	if err != nil {
		return 0, err
	}
	return added, nil
}

// fetchInto fetches set.NextPage, validates and persists the page's records
// in one transaction, publishes them and appends them to the set. A store
// failure rolls the page back and is surfaced, never swallowed.
func (s *SearchService) fetchInto(ctx context.Context, key string, params domain.SearchParams, set *cache.ResultSet) (*domain.SearchStats, int, error) {
	start := time.Now()
	params.Page = set.NextPage

	page, err := s.source.FetchPage(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page %d: %w", params.Page, err)
	}

	stats := &domain.SearchStats{
		SearchKey: key,
		Fetched:   len(page.Records),
		Errors:    page.Failed,
	}

	// Validation boundary: records past this point are guaranteed to carry an
	// identity key, so downstream logic never re-checks.
	var valid []domain.EventRecord
	for i := range page.Records {
		rec := page.Records[i]
		if !rec.Valid() {
			stats.Dropped++
			s.logger.Warn("dropping record without identity key", "name", rec.Name)
			continue
		}
		rec.SearchKey = key
		valid = append(valid, rec)
	}

	urls := make([]string, len(valid))
	for i := range valid {
		urls[i] = valid[i].URL
	}
	existing, err := s.store.GetExistingByURLs(ctx, urls)
	if err != nil {
		return nil, 0, fmt.Errorf("probe existing records: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for i := range valid {
			if _, err := s.store.Upsert(txCtx, &valid[i]); err != nil {
				return fmt.Errorf("upsert %s: %w", valid[i].URL, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	for i := range valid {
		_, exists := existing[valid[i].URL]
		if exists {
			stats.Updated++
		} else {
			stats.New++
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, &valid[i], !exists); err != nil {
				stats.Errors++
				s.logger.Warn("publish failed", "url", valid[i].URL, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	set.Records = append(set.Records, valid...)
	set.Tags.Merge(page.Tags)
	set.NextPage = params.Page + 1
	set.More = page.MorePages

	stats.Duration = time.Since(start)

	s.logger.Info("page persisted",
		"search_key", key,
		"page", params.Page,
		"fetched", stats.Fetched,
		"new", stats.New,
		"updated", stats.Updated,
		"dropped", stats.Dropped,
		"errors", stats.Errors,
		"more", set.More,
		"duration", stats.Duration,
	)

	return stats, len(valid), nil
}

// StoredBySearchKey returns the durably stored records for one search key.
func (s *SearchService) StoredBySearchKey(ctx context.Context, key string) ([]domain.EventRecord, error) {
	return s.store.GetBySearchKey(ctx, key)
}

// StoredAll returns every durably stored record.
func (s *SearchService) StoredAll(ctx context.Context) ([]domain.EventRecord, error) {
	return s.store.GetAll(ctx)
}

// StoredSearchKeys lists the search keys present in the store.
func (s *SearchService) StoredSearchKeys(ctx context.Context) ([]string, error) {
	return s.store.DistinctSearchKeys(ctx)
}

// PruneExpired removes stored records that started in the past or whose start
// never resolved.
func (s *SearchService) PruneExpired(ctx context.Context) (int64, error) {
	count, err := s.store.PruneExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("pruned expired events", "count", count)
	}
	return count, nil
}

// ClearStore removes every stored record and drops the memoized result sets
// that referenced them.
func (s *SearchService) ClearStore(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}
