// Package discovery runs topic searches and trending lookups end to end:
// cache check, backend fetch, date normalization, recency filter, ordering
// and cache population.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/qepting91/tubescout/internal/cache"
	"github.com/qepting91/tubescout/internal/domain"
	"github.com/qepting91/tubescout/internal/normalize"
)

var ErrInvalidQuery = errors.New("invalid query")

// Result is the outcome of one pipeline invocation.
type Result struct {
	SearchID  string
	Videos    []domain.Video
	FromCache bool
}

// Pipeline is safe for concurrent use; searches are executed one at a time in arrival order.
type Pipeline struct {
	collector  domain.Collector
	store      cache.Store
	normalizer normalize.Normalizer
	sem        *semaphore.Weighted
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Pipeline)

// WithClock fixes the time source used for recency bounds and relative dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithNormalizer(n normalize.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

func New(collector domain.Collector, store cache.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector: collector,
		store:     store,
		sem:       semaphore.NewWeighted(1),
		now:       time.Now,
		logger:    logger.With("component", "discovery"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.normalizer == nil {
		p.normalizer = normalize.WithClock(p.now)
	}
	return p
}

// Search returns the cached result for q when present, otherwise fetches,
// normalizes, filters and sorts a fresh one and caches it if non-empty.
// Backend failures are returned wrapped; nothing is cached on failure.
func (p *Pipeline) Search(ctx context.Context, q domain.SearchQuery) (Result, error) {
	res := Result{SearchID: uuid.NewString()}
	if strings.TrimSpace(q.Topic) == "" {
		return res, fmt.Errorf("%w: topic is required", ErrInvalidQuery)
	}
	if q.MaxResults <= 0 {
		return res, fmt.Errorf("%w: max results must be positive", ErrInvalidQuery)
	}

	key := q.Key()
	log := p.logger.With("search_id", res.SearchID, "key", string(key), "mode", p.collector.Mode())

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return res, err
	}
	defer p.sem.Release(1)

	cached, ok, err := p.store.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("Cache read failed, fetching instead", "error", err)
	case ok:
		log.Info("Cache hit", "count", len(cached))
		res.Videos = cached
		res.FromCache = true
		return res, nil
	}

	// Relative dates resolve to whole seconds, so the bound does too.
	since := q.Since(p.now()).Truncate(time.Second)
	start := time.Now()
	raw, err := p.collector.SearchVideos(ctx, strings.TrimSpace(q.Topic), since, q.MaxResults)
	if err != nil {
		log.Error("Search failed", "kind", domain.Kind(err), "error", err)
		return res, fmt.Errorf("search %q: %w", q.Topic, err)
	}

	videos := p.normalizeAll(raw, since)
	sortNewestFirst(videos)
	if len(videos) > q.MaxResults {
		videos = videos[:q.MaxResults]
	}
	res.Videos = videos
	log.Info("Search complete", "fetched", len(raw), "kept", len(videos), "elapsed", time.Since(start))

	if len(videos) == 0 {
		return res, nil
	}
	if err := p.store.Put(ctx, key, videos); err != nil {
		log.Warn("Cache write failed", "error", err)
	}
	return res, nil
}

// Trending always goes to the backend; its results are never cached.
func (p *Pipeline) Trending(ctx context.Context, q domain.TrendingQuery) (Result, error) {
	res := Result{SearchID: uuid.NewString()}
	q = q.WithDefaults()
	categoryID := domain.CategoryID(q.Category)
	log := p.logger.With("search_id", res.SearchID, "region", q.Region, "category", q.Category, "mode", p.collector.Mode())
	if q.Category != "" && categoryID == "" && !strings.EqualFold(q.Category, "all") {
		log.Warn("Unknown category, listing all categories")
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return res, err
	}
	defer p.sem.Release(1)

	raw, err := p.collector.TrendingVideos(ctx, q.Region, categoryID, q.MaxResults)
	if err != nil {
		log.Error("Trending failed", "kind", domain.Kind(err), "error", err)
		return res, fmt.Errorf("trending %s: %w", q.Region, err)
	}
	res.Videos = p.normalizeAll(raw, time.Time{})
	sortNewestFirst(res.Videos)
	log.Info("Trending complete", "count", len(res.Videos))
	return res, nil
}

// Stats looks up the engagement counters of one video.
func (p *Pipeline) Stats(ctx context.Context, videoID string) (domain.Stats, error) {
	if strings.TrimSpace(videoID) == "" {
		return domain.Stats{}, fmt.Errorf("%w: video id is required", ErrInvalidQuery)
	}
	stats, err := p.collector.VideoStats(ctx, strings.TrimSpace(videoID))
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats %s: %w", videoID, err)
	}
	return stats, nil
}

// Enrich returns copies of videos with counters filled in one lookup at a time.
// A failed lookup leaves that video's counters as they were. The input slice is
// not modified. Only cancellation of ctx is reported as an error.
func (p *Pipeline) Enrich(ctx context.Context, videos []domain.Video) ([]domain.Video, error) {
	out := make([]domain.Video, len(videos))
	copy(out, videos)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		stats, err := p.collector.VideoStats(ctx, out[i].VideoID)
		if err != nil {
			p.logger.Warn("Enrichment failed", "video_id", out[i].VideoID, "kind", domain.Kind(err), "error", err)
			continue
		}
		if stats.Views != nil {
			out[i].Views = stats.Views
		}
		if stats.Likes != nil {
			out[i].Likes = stats.Likes
		}
		if stats.Comments != nil {
			out[i].Comments = stats.Comments
		}
	}
	return out, nil
}

// normalizeAll converts raw dates and drops records dated before since.
// Records whose date could not be parsed are kept; they sort last.
func (p *Pipeline) normalizeAll(raw []domain.RawVideo, since time.Time) []domain.Video {
	videos := make([]domain.Video, 0, len(raw))
	for _, r := range raw {
		date := p.normalizer.Normalize(r.Published)
		if !since.IsZero() && !date.Equal(domain.SentinelDate) && date.Before(since) {
			continue
		}
		videos = append(videos, domain.Video{
			Name:    r.Name,
			VideoID: r.VideoID,
			Date:    date,
			Views:   r.Views,
		})
	}
	return videos
}

// sortNewestFirst orders by date descending; equal dates keep backend order.
func sortNewestFirst(videos []domain.Video) {
	slices.SortStableFunc(videos, func(a, b domain.Video) int {
		return b.Date.Compare(a.Date)
	})
}
