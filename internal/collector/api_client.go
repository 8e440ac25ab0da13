package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/qepting91/tubescout/internal/domain"
)

// maxAPIResults is the largest page the Data API serves.
const maxAPIResults = 50

// APIClient queries the YouTube Data API v3 with an API key.
type APIClient struct {
	service *youtube.Service
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// NewAPIClient builds the Data API service. Extra options are appended after the
// key, so tests can point the client at a local endpoint.
func NewAPIClient(ctx context.Context, apiKey string, timeout, interval time.Duration, logger *slog.Logger, extra ...option.ClientOption) (*APIClient, error) {
	if apiKey == "" && len(extra) == 0 {
		return nil, errors.New("an API key is required for the api collector")
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	opts = append(opts, extra...)

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
	}

	return &APIClient{
		service: service,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		timeout: timeout,
		logger:  logger.With("collector", "api"),
	}, nil
}

func (ac *APIClient) Mode() string { return "api" }

// SearchVideos lists videos matching topic, newest first, published after since.
func (ac *APIClient) SearchVideos(ctx context.Context, topic string, since time.Time, limit int) ([]domain.RawVideo, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, ac.timeout)
	defer cancel()

	call := ac.service.Search.List([]string{"id", "snippet"}).
		Q(topic).
		Type("video").
		Order("date").
		MaxResults(clampResults(limit))
	if !since.IsZero() {
		call = call.PublishedAfter(since.UTC().Format(domain.DateLayout))
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", topic, classify(err))
	}

	videos := make([]domain.RawVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, domain.RawVideo{
			Name:      item.Snippet.Title,
			VideoID:   item.Id.VideoId,
			Published: item.Snippet.PublishedAt,
		})
	}
	ac.logger.Debug("search listed", "topic", topic, "videos", len(videos))
	return videos, nil
}

// TrendingVideos lists the most popular chart for a region and optional category.
func (ac *APIClient) TrendingVideos(ctx context.Context, region, categoryID string, limit int) ([]domain.RawVideo, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, ac.timeout)
	defer cancel()

	call := ac.service.Videos.List([]string{"id", "snippet", "statistics"}).
		Chart("mostPopular").
		RegionCode(region).
		MaxResults(clampResults(limit))
	if categoryID != "" {
		call = call.VideoCategoryId(categoryID)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("trending %s/%s: %w", region, categoryID, classify(err))
	}

	videos := make([]domain.RawVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		raw := domain.RawVideo{
			Name:      item.Snippet.Title,
			VideoID:   item.Id,
			Published: item.Snippet.PublishedAt,
		}
		if item.Statistics != nil {
			raw.Views = count(item.Statistics.ViewCount)
		}
		videos = append(videos, raw)
	}
	return videos, nil
}

// VideoStats looks up view, like and comment counters for one video.
func (ac *APIClient) VideoStats(ctx context.Context, videoID string) (domain.Stats, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return domain.Stats{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, ac.timeout)
	defer cancel()

	resp, err := ac.service.Videos.List([]string{"statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("statistics %s: %w", videoID, classify(err))
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return domain.Stats{}, fmt.Errorf("statistics %s: %w", videoID, domain.ErrNotFound)
	}
	s := resp.Items[0].Statistics
	return domain.Stats{
		Views:    count(s.ViewCount),
		Likes:    count(s.LikeCount),
		Comments: count(s.CommentCount),
	}, nil
}

// classify maps a Data API failure onto the backend error taxonomy.
func classify(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusForbidden, http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrRemote, err)
}

func clampResults(limit int) int64 {
	if limit <= 0 || limit > maxAPIResults {
		return maxAPIResults
	}
	return int64(limit)
}

func count(v uint64) *int64 {
	n := int64(v)
	return &n
}
