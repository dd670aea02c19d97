package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"event_hoarder/internal/domain"
)

// ErrMissingURL is returned when a record arrives without an identity key.
var ErrMissingURL = errors.New("event record has no URL")

type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

// Upsert inserts the record or, when its URL already exists, replaces all
// mutable fields and refreshes saved_at. Identity (URL) never changes.
// Re-upserting an identical record is a no-op apart from saved_at.
func (s *EventStore) Upsert(ctx context.Context, rec *domain.EventRecord) (int64, error) {
	if !rec.Valid() {
		return 0, ErrMissingURL
	}

	query := `
		INSERT INTO events (
			url, search_key, name, location, raw_schedule, normalized_start,
			summary, price_text, organiser_name, organiser_link, saved_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()
		)
		ON CONFLICT (url) DO UPDATE SET
			search_key = EXCLUDED.search_key,
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			raw_schedule = EXCLUDED.raw_schedule,
			normalized_start = EXCLUDED.normalized_start,
			summary = EXCLUDED.summary,
			price_text = EXCLUDED.price_text,
			organiser_name = EXCLUDED.organiser_name,
			organiser_link = EXCLUDED.organiser_link,
			saved_at = NOW()
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		rec.URL,
		rec.SearchKey,
		rec.Name,
		rec.Location,
		rec.RawSchedule,
		nullableStart(rec.Start),
		rec.Summary,
		rec.PriceText,
		rec.OrganiserName,
		rec.OrganiserLink,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	rec.ID = id
	return id, nil
}

// GetExistingByURLs returns saved_at for every given URL already stored.
func (s *EventStore) GetExistingByURLs(ctx context.Context, urls []string) (map[string]time.Time, error) {
	result := make(map[string]time.Time)
	if len(urls) == 0 {
		return result, nil
	}

	query := `SELECT url, saved_at FROM events WHERE url = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		var savedAt time.Time
		if err := rows.Scan(&url, &savedAt); err != nil {
			return nil, err
		}
		result[url] = savedAt
	}

	return result, rows.Err()
}

// GetBySearchKey returns all records discovered under one search key, in
// storage order.
func (s *EventStore) GetBySearchKey(ctx context.Context, key string) ([]domain.EventRecord, error) {
	query := `
		SELECT id, url, search_key, name, location, raw_schedule,
			normalized_start, summary, price_text, organiser_name,
			organiser_link, saved_at
		FROM events
		WHERE search_key = $1
		ORDER BY id`

	return s.selectRecords(ctx, query, key)
}

// GetAll returns every stored record in storage order.
func (s *EventStore) GetAll(ctx context.Context) ([]domain.EventRecord, error) {
	query := `
		SELECT id, url, search_key, name, location, raw_schedule,
			normalized_start, summary, price_text, organiser_name,
			organiser_link, saved_at
		FROM events
		ORDER BY id`

	return s.selectRecords(ctx, query)
}

// DistinctSearchKeys lists the search keys present in the store.
func (s *EventStore) DistinctSearchKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys, `SELECT DISTINCT search_key FROM events ORDER BY search_key`)
	return keys, err
}

// PruneExpired deletes records that start before today and records whose
// start could not be resolved. Unresolved records cannot be scheduled around,
// so they must not accumulate.
func (s *EventStore) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE normalized_start IS NULL OR normalized_start < $1`,
		startOfDay,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearAll removes every stored record.
func (s *EventStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events`)
	return err
}

func (s *EventStore) selectRecords(ctx context.Context, query string, args ...interface{}) ([]domain.EventRecord, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.EventRecord
	for rows.Next() {
		var row eventRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		records = append(records, row.toDomain())
	}

	return records, rows.Err()
}

type eventRow struct {
	ID              int64        `db:"id"`
	URL             string       `db:"url"`
	SearchKey       string       `db:"search_key"`
	Name            string       `db:"name"`
	Location        string       `db:"location"`
	RawSchedule     string       `db:"raw_schedule"`
	NormalizedStart sql.NullTime `db:"normalized_start"`
	Summary         string       `db:"summary"`
	PriceText       string       `db:"price_text"`
	OrganiserName   string       `db:"organiser_name"`
	OrganiserLink   *string      `db:"organiser_link"`
	SavedAt         time.Time    `db:"saved_at"`
}

func (r eventRow) toDomain() domain.EventRecord {
	rec := domain.EventRecord{
		ID:            r.ID,
		URL:           r.URL,
		SearchKey:     r.SearchKey,
		Name:          r.Name,
		Location:      r.Location,
		RawSchedule:   r.RawSchedule,
		Summary:       r.Summary,
		PriceText:     r.PriceText,
		OrganiserName: r.OrganiserName,
		OrganiserLink: r.OrganiserLink,
		SavedAt:       r.SavedAt,
	}
	if r.NormalizedStart.Valid {
		rec.Start = domain.ResolvedTime(r.NormalizedStart.Time)
	}
	return rec
}

func nullableStart(t domain.EventTime) sql.NullTime {
	return sql.NullTime{Time: t.Time, Valid: t.Resolved}
}
