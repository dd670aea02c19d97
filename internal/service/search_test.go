package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"event_hoarder/internal/cache"
	"event_hoarder/internal/domain"
	"event_hoarder/internal/service/mocks"
)

type SearchServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source    *mocks.MockSource
	store     *mocks.MockEventStore
	txManager *mocks.MockTransactionManager
	publisher *mocks.MockPublisher
	cache     *cache.Cache

	service *SearchService
	logger  *slog.Logger
}

func (s *SearchServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.store = mocks.NewMockEventStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.cache = cache.New()

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source.EXPECT().Name().Return("Test Source").AnyTimes()

	s.service = NewSearchService(
		s.source,
		s.store,
		s.txManager,
		s.publisher,
		s.cache,
		s.logger,
	)
}

func (s *SearchServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSearchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceTestSuite))
}

func (s *SearchServiceTestSuite) expectPassthroughTx() {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()
}

func pageOf(more bool, urls ...string) *domain.PageResult {
	page := &domain.PageResult{MorePages: more}
	for _, u := range urls {
		page.Records = append(page.Records, domain.EventRecord{
			URL:       u,
			Name:      "Event",
			PriceText: domain.DefaultPrice,
			Start:     domain.ResolvedTime(time.Now().Add(24 * time.Hour)),
		})
	}
	page.Tags = []domain.TagCount{{Tag: "music", Count: len(urls)}}
	return page
}

func (s *SearchServiceTestSuite) TestSearch_PersistsNewRecords() {
	ctx := context.Background()
	params := domain.SearchParams{Query: "jazz", Location: "london"}
	s.expectPassthroughTx()

	s.source.EXPECT().FetchPage(ctx, domain.SearchParams{Query: "jazz", Location: "london", Page: 1}).
		Return(pageOf(true, "https://e.com/e/1", "https://e.com/e/2"), nil)
	s.store.EXPECT().GetExistingByURLs(ctx, []string{"https://e.com/e/1", "https://e.com/e/2"}).
		Return(map[string]time.Time{}, nil)
	s.store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(int64(1), nil).Times(2)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), true).Return(nil).Times(2)

	set, stats, err := s.service.Search(ctx, params)

	s.NoError(err)
	s.Len(set.Records, 2)
	s.Equal("jazz_london", set.Records[0].SearchKey)
	s.Equal(2, stats.Fetched)
	s.Equal(2, stats.New)
	s.Equal(0, stats.Updated)
	s.Equal(2, stats.Published)
	s.Equal(2, set.NextPage)
	s.True(set.More)
	s.Equal(1, set.Tags.Len())
}

func (s *SearchServiceTestSuite) TestSearch_CacheShortCircuit() {
	ctx := context.Background()
	params := domain.SearchParams{Query: "jazz", Location: "london"}
	s.expectPassthroughTx()

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).
		Return(pageOf(true, "https://e.com/e/1"), nil).
		Times(1)
	s.store.EXPECT().GetExistingByURLs(ctx, gomock.Any()).Return(map[string]time.Time{}, nil)
	s.store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), true).Return(nil)

	first, _, err := s.service.Search(ctx, params)
	s.NoError(err)

	second, stats, err := s.service.Search(ctx, params)
	s.NoError(err)
	s.Same(first, second)
	s.Equal(1, stats.Fetched)
}

func (s *SearchServiceTestSuite) TestSearch_ClassifiesUpdated() {
	ctx := context.Background()
	s.expectPassthroughTx()

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).
		Return(pageOf(true, "https://e.com/e/1"), nil)
	s.store.EXPECT().GetExistingByURLs(ctx, gomock.Any()).
		Return(map[string]time.Time{"https://e.com/e/1": time.Now()}, nil)
	s.store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), false).Return(nil)

	_, stats, err := s.service.Search(ctx, domain.SearchParams{Query: "jazz", Location: "london"})

	s.NoError(err)
	s.Equal(0, stats.New)
	s.Equal(1, stats.Updated)
}

func (s *SearchServiceTestSuite) TestSearch_DropsRecordWithoutIdentity() {
	ctx := context.Background()
	s.expectPassthroughTx()

	page := pageOf(true, "https://e.com/e/1")
	page.Records = append(page.Records, domain.EventRecord{Name: "No identity"})

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).Return(page, nil)
	s.store.EXPECT().GetExistingByURLs(ctx, []string{"https://e.com/e/1"}).
		Return(map[string]time.Time{}, nil)
	s.store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(int64(1), nil).Times(1)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), true).Return(nil)

	set, stats, err := s.service.Search(ctx, domain.SearchParams{Query: "jazz", Location: "london"})

	s.NoError(err)
	s.Len(set.Records, 1)
	s.Equal(1, stats.Dropped)
}

func (s *SearchServiceTestSuite) TestSearch_StoreFailureSurfaced() {
	ctx := context.Background()

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).
		Return(pageOf(true, "https://e.com/e/1"), nil)
	s.store.EXPECT().GetExistingByURLs(ctx, gomock.Any()).Return(map[string]time.Time{}, nil)
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).
		Return(errors.New("connection refused"))

	_, _, err := s.service.Search(ctx, domain.SearchParams{Query: "jazz", Location: "london"})

	s.Error(err)
	_, cached := s.cache.Get("jazz_london")
	s.False(cached, "a failed search must not be memoized")
}

func (s *SearchServiceTestSuite) TestSearch_FetchFailureSurfaced() {
	ctx := context.Background()

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).Return(nil, errors.New("timeout"))

	_, _, err := s.service.Search(ctx, domain.SearchParams{Query: "jazz", Location: "london"})

	s.Error(err)
}

func (s *SearchServiceTestSuite) TestFetchMore_AppendsNextPage() {
	ctx := context.Background()
	params := domain.SearchParams{Query: "jazz", Location: "london"}
	s.expectPassthroughTx()
	s.store.EXPECT().GetExistingByURLs(ctx, gomock.Any()).Return(map[string]time.Time{}, nil).Times(2)
	s.store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(int64(1), nil).Times(2)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), true).Return(nil).Times(2)

	s.source.EXPECT().FetchPage(ctx, domain.SearchParams{Query: "jazz", Location: "london", Page: 1}).
		Return(pageOf(true, "https://e.com/e/1"), nil)
	set, _, err := s.service.Search(ctx, params)
	s.NoError(err)

	s.source.EXPECT().FetchPage(ctx, domain.SearchParams{Query: "jazz", Location: "london", Page: 2}).
		Return(pageOf(true, "https://e.com/e/2"), nil)
	added, err := s.service.FetchMore(ctx, params)

	s.NoError(err)
	s.Equal(1, added)
	s.Len(set.Records, 2)
	s.Equal(3, set.NextPage)
}

func (s *SearchServiceTestSuite) TestFetchMore_EmptyPageExhaustsSet() {
	ctx := context.Background()
	params := domain.SearchParams{Query: "jazz", Location: "london"}
	s.expectPassthroughTx()
	s.store.EXPECT().GetExistingByURLs(ctx, gomock.Any()).Return(map[string]time.Time{}, nil).Times(2)
	s.store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), true).Return(nil)

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).
		Return(pageOf(true, "https://e.com/e/1"), nil)
	set, _, err := s.service.Search(ctx, params)
	s.NoError(err)

	s.source.EXPECT().FetchPage(ctx, gomock.Any()).
		Return(pageOf(false), nil)
	added, err := s.service.FetchMore(ctx, params)
	s.NoError(err)
	s.Equal(0, added)
	s.False(set.More)

	// Exhausted sets never trigger another fetch.
	added, err = s.service.FetchMore(ctx, params)
	s.NoError(err)
	s.Equal(0, added)
}

func (s *SearchServiceTestSuite) TestFetchMore_UnknownKey() {
	_, err := s.service.FetchMore(context.Background(), domain.SearchParams{Query: "never", Location: "searched"})
	s.Error(err)
}

func (s *SearchServiceTestSuite) TestClearStore_AlsoDropsCache() {
	ctx := context.Background()
	s.cache.Put("jazz_london", cache.NewResultSet())
	s.store.EXPECT().ClearAll(ctx).Return(nil)

	s.NoError(s.service.ClearStore(ctx))

	_, ok := s.cache.Get("jazz_london")
	s.False(ok)
}
