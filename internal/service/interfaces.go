package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"event_hoarder/internal/domain"
)

type EventStore interface {
	Upsert(ctx context.Context, rec *domain.EventRecord) (int64, error)
	GetExistingByURLs(ctx context.Context, urls []string) (map[string]time.Time, error)
	GetBySearchKey(ctx context.Context, key string) ([]domain.EventRecord, error)
	GetAll(ctx context.Context) ([]domain.EventRecord, error)
	DistinctSearchKeys(ctx context.Context) ([]string, error)
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
	ClearAll(ctx context.Context) error
}

type Source interface {
	Name() string
	FetchPage(ctx context.Context, params domain.SearchParams) (*domain.PageResult, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, rec *domain.EventRecord, isNew bool) error
	Close() error
}
