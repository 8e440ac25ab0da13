package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/qepting91/tubescout/internal/cache"
	"github.com/qepting91/tubescout/internal/domain"
)

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) SearchVideos(ctx context.Context, topic string, since time.Time, limit int) ([]domain.RawVideo, error) {
	args := m.Called(ctx, topic, since, limit)
	raw, _ := args.Get(0).([]domain.RawVideo)
	return raw, args.Error(1)
}

func (m *mockCollector) TrendingVideos(ctx context.Context, region, categoryID string, limit int) ([]domain.RawVideo, error) {
	args := m.Called(ctx, region, categoryID, limit)
	raw, _ := args.Get(0).([]domain.RawVideo)
	return raw, args.Error(1)
}

func (m *mockCollector) VideoStats(ctx context.Context, videoID string) (domain.Stats, error) {
	args := m.Called(ctx, videoID)
	stats, _ := args.Get(0).(domain.Stats)
	return stats, args.Error(1)
}

func (m *mockCollector) Mode() string { return "mock" }

func ptr(n int64) *int64 { return &n }

type PipelineTestSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	collector *mockCollector
	store     cache.Store
	pipeline  *Pipeline
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (s *PipelineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	s.collector = new(mockCollector)

	store, err := cache.OpenFile(filepath.Join(s.T().TempDir(), "search_cache.json"))
	s.Require().NoError(err)
	s.store = store

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.pipeline = New(s.collector, s.store, logger, WithClock(func() time.Time { return s.now }))
}

func (s *PipelineTestSuite) TearDownTest() {
	s.collector.AssertExpectations(s.T())
}

func (s *PipelineTestSuite) TestSearch_SortsNewestFirstWithSentinelLast() {
	q := domain.SearchQuery{Topic: "golang", DaysAgo: 0, MaxResults: 10}
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Time{}, 10).Return([]domain.RawVideo{
		{Name: "broken", VideoID: "a", Published: "not a date"},
		{Name: "older", VideoID: "b", Published: "2023-01-01T00:00:00Z"},
		{Name: "newer", VideoID: "c", Published: "2024-06-01T00:00:00Z"},
	}, nil).Once()

	res, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)
	s.False(res.FromCache)
	s.NotEmpty(res.SearchID)
	s.Require().Len(res.Videos, 3)
	s.Equal("c", res.Videos[0].VideoID)
	s.Equal("b", res.Videos[1].VideoID)
	s.Equal("a", res.Videos[2].VideoID)
	s.Equal(domain.SentinelDate, res.Videos[2].Date)
}

func (s *PipelineTestSuite) TestSearch_StableForEqualDates() {
	q := domain.SearchQuery{Topic: "golang", MaxResults: 10}
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Time{}, 10).Return([]domain.RawVideo{
		{VideoID: "first", Published: "2 days ago"},
		{VideoID: "second", Published: "2 days ago"},
		{VideoID: "third", Published: "2 days ago"},
	}, nil).Once()

	res, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)
	s.Equal([]string{"first", "second", "third"}, ids(res.Videos))
}

func (s *PipelineTestSuite) TestSearch_SecondCallServedFromCache() {
	q := domain.SearchQuery{Topic: "golang", DaysAgo: 30, MaxResults: 5}
	since := s.now.Add(-30 * 24 * time.Hour)
	s.collector.On("SearchVideos", mock.Anything, "golang", since, 5).Return([]domain.RawVideo{
		{Name: "one", VideoID: "1", Published: "2024-06-20T10:00:00Z", Views: ptr(10)},
		{Name: "two", VideoID: "2", Published: "3 days ago"},
	}, nil).Once()

	first, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)
	second, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)

	s.True(second.FromCache)
	s.Equal(first.Videos, second.Videos)
	s.NotEqual(first.SearchID, second.SearchID)
	s.collector.AssertNumberOfCalls(s.T(), "SearchVideos", 1)
}

func (s *PipelineTestSuite) TestSearch_DropsRecordsBeforeRecencyBound() {
	q := domain.SearchQuery{Topic: "golang", DaysAgo: 10, MaxResults: 10}
	since := s.now.Add(-10 * 24 * time.Hour)
	s.collector.On("SearchVideos", mock.Anything, "golang", since, 10).Return([]domain.RawVideo{
		{VideoID: "recent", Published: "2024-06-28T00:00:00Z"},
		{VideoID: "mid", Published: "2024-06-15T00:00:00Z"},
		{VideoID: "old", Published: "2024-06-01T00:00:00Z"},
		{VideoID: "undated", Published: ""},
	}, nil).Once()

	res, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)
	s.Equal([]string{"recent", "undated"}, ids(res.Videos))
	for _, v := range res.Videos {
		if !v.Date.Equal(domain.SentinelDate) {
			s.False(v.Date.Before(since))
		}
	}
}

func (s *PipelineTestSuite) TestSearch_ParseErrorLeavesCacheUntouched() {
	q := domain.SearchQuery{Topic: "golang", DaysAgo: 7, MaxResults: 10}
	s.collector.On("SearchVideos", mock.Anything, "golang", mock.Anything, 10).
		Return(nil, fmt.Errorf("%w: ytInitialData not found", domain.ErrParse)).Once()

	res, err := s.pipeline.Search(s.ctx, q)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrParse))
	s.Empty(res.Videos)

	_, ok, err := s.store.Get(s.ctx, q.Key())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PipelineTestSuite) TestSearch_FailureIsRetriedOnNextCall() {
	q := domain.SearchQuery{Topic: "golang", MaxResults: 3}
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Time{}, 3).
		Return(nil, fmt.Errorf("%w: status 403", domain.ErrQuotaExceeded)).Once()
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Time{}, 3).
		Return([]domain.RawVideo{{VideoID: "x", Published: "1 hour ago"}}, nil).Once()

	_, err := s.pipeline.Search(s.ctx, q)
	s.True(errors.Is(err, domain.ErrQuotaExceeded))

	res, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)
	s.False(res.FromCache)
	s.Equal(s.now, res.Videos[0].Date)
}

func (s *PipelineTestSuite) TestSearch_EmptyResultNotCached() {
	q := domain.SearchQuery{Topic: "nothing here", DaysAgo: 1, MaxResults: 10}
	s.collector.On("SearchVideos", mock.Anything, "nothing here", mock.Anything, 10).
		Return([]domain.RawVideo{}, nil).Twice()

	for range 2 {
		res, err := s.pipeline.Search(s.ctx, q)
		s.Require().NoError(err)
		s.Empty(res.Videos)
		s.False(res.FromCache)
	}
}

func (s *PipelineTestSuite) TestSearch_CapsAtMaxResults() {
	q := domain.SearchQuery{Topic: "golang", MaxResults: 2}
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Time{}, 2).Return([]domain.RawVideo{
		{VideoID: "old", Published: "2020-01-01T00:00:00Z"},
		{VideoID: "mid", Published: "2022-01-01T00:00:00Z"},
		{VideoID: "new", Published: "2024-01-01T00:00:00Z"},
	}, nil).Once()

	res, err := s.pipeline.Search(s.ctx, q)
	s.Require().NoError(err)
	s.Equal([]string{"new", "mid"}, ids(res.Videos))
}

func (s *PipelineTestSuite) TestSearch_KeepsItemExactlyAtRecencyBound() {
	now := time.Date(2024, 6, 30, 12, 0, 0, 500, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(s.collector, s.store, logger, WithClock(func() time.Time { return now }))

	q := domain.SearchQuery{Topic: "golang", DaysAgo: 10, MaxResults: 5}
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC), 5).
		Return([]domain.RawVideo{{VideoID: "edge", Published: "10 days ago"}}, nil).Once()

	res, err := p.Search(s.ctx, q)
	s.Require().NoError(err)
	s.Equal([]string{"edge"}, ids(res.Videos))
}

func (s *PipelineTestSuite) TestSearch_InvalidQuery() {
	_, err := s.pipeline.Search(s.ctx, domain.SearchQuery{Topic: "  ", MaxResults: 10})
	s.ErrorIs(err, ErrInvalidQuery)

	_, err = s.pipeline.Search(s.ctx, domain.SearchQuery{Topic: "golang", MaxResults: 0})
	s.ErrorIs(err, ErrInvalidQuery)
}

func (s *PipelineTestSuite) TestSearch_ConcurrentCallsFetchOnce() {
	q := domain.SearchQuery{Topic: "golang", MaxResults: 10}
	s.collector.On("SearchVideos", mock.Anything, "golang", time.Time{}, 10).
		Return([]domain.RawVideo{{VideoID: "only", Published: "2024-06-01T00:00:00Z"}}, nil).Once()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.pipeline.Search(s.ctx, q)
			s.NoError(err)
			s.Len(res.Videos, 1)
		}()
	}
	wg.Wait()
	s.collector.AssertNumberOfCalls(s.T(), "SearchVideos", 1)
}

func (s *PipelineTestSuite) TestTrending_NeverCached() {
	s.collector.On("TrendingVideos", mock.Anything, "US", "10", 50).Return([]domain.RawVideo{
		{VideoID: "t1", Published: "2024-06-29T00:00:00Z", Views: ptr(500)},
		{VideoID: "t2", Published: "2024-06-30T00:00:00Z", Views: ptr(900)},
	}, nil).Twice()

	for range 2 {
		res, err := s.pipeline.Trending(s.ctx, domain.TrendingQuery{Category: "Music"})
		s.Require().NoError(err)
		s.False(res.FromCache)
		s.Equal([]string{"t2", "t1"}, ids(res.Videos))
		s.Equal(int64(900), *res.Videos[0].Views)
	}
	s.collector.AssertNumberOfCalls(s.T(), "TrendingVideos", 2)
}

func (s *PipelineTestSuite) TestTrending_ErrorSurfaced() {
	s.collector.On("TrendingVideos", mock.Anything, "GB", "", 50).
		Return(nil, fmt.Errorf("%w: region", domain.ErrNotFound)).Once()

	_, err := s.pipeline.Trending(s.ctx, domain.TrendingQuery{Region: "GB", Category: "All"})
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PipelineTestSuite) TestEnrich_FillsCountersAndSkipsFailures() {
	videos := []domain.Video{
		{VideoID: "ok", Date: s.now},
		{VideoID: "gone", Date: s.now},
	}
	s.collector.On("VideoStats", mock.Anything, "ok").
		Return(domain.Stats{Views: ptr(100), Likes: ptr(7), Comments: ptr(2)}, nil).Once()
	s.collector.On("VideoStats", mock.Anything, "gone").
		Return(domain.Stats{}, fmt.Errorf("%w: gone", domain.ErrNotFound)).Once()

	out, err := s.pipeline.Enrich(s.ctx, videos)
	s.Require().NoError(err)
	s.Equal(int64(100), *out[0].Views)
	s.Equal(int64(7), *out[0].Likes)
	s.Equal(int64(2), *out[0].Comments)
	s.Nil(out[1].Views)
	s.Nil(videos[0].Views, "input must not be modified")
}

func (s *PipelineTestSuite) TestEnrich_StopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	out, err := s.pipeline.Enrich(ctx, []domain.Video{{VideoID: "x"}})
	s.ErrorIs(err, context.Canceled)
	s.Len(out, 1)
}

func (s *PipelineTestSuite) TestStats() {
	s.collector.On("VideoStats", mock.Anything, "abc").Return(domain.Stats{Views: ptr(3)}, nil).Once()

	stats, err := s.pipeline.Stats(s.ctx, " abc ")
	s.Require().NoError(err)
	s.Equal(int64(3), *stats.Views)

	_, err = s.pipeline.Stats(s.ctx, "")
	s.ErrorIs(err, ErrInvalidQuery)
}

func ids(videos []domain.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.VideoID)
	}
	return out
}
