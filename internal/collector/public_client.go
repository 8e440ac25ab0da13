package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/qepting91/tubescout/internal/domain"
)

// maxPageBytes bounds how much of a rendered page is read.
const maxPageBytes = 8 << 20

// PublicClient scrapes rendered YouTube pages; it needs no credential.
type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	host       string
	userAgent  string
	logger     *slog.Logger
}

func NewPublicClient(host, userAgent string, timeout, interval time.Duration, logger *slog.Logger) (*PublicClient, error) {
	if _, err := url.Parse(host); err != nil || host == "" {
		return nil, fmt.Errorf("invalid scrape host %q", host)
	}
	return &PublicClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		host:       strings.TrimRight(host, "/"),
		userAgent:  userAgent,
		logger:     logger.With("collector", "public"),
	}, nil
}

func (pc *PublicClient) Mode() string { return "public" }

// SearchVideos scrapes the search results page. The recency bound is applied
// by the caller once dates are normalized.
func (pc *PublicClient) SearchVideos(ctx context.Context, topic string, _ time.Time, limit int) ([]domain.RawVideo, error) {
	searchURL := pc.host + "/results?search_query=" + url.QueryEscape(topic)

	var page searchPage
	if err := pc.fetchInitialData(ctx, searchURL, &page); err != nil {
		return nil, fmt.Errorf("scrape search %q: %w", topic, err)
	}
	if page.Contents == nil || page.Contents.TwoColumnSearchResultsRenderer == nil {
		return nil, fmt.Errorf("scrape search %q: %w: search results renderer missing", topic, domain.ErrParse)
	}

	var videos []domain.RawVideo
	sections := page.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			vr := item.VideoRenderer
			if vr == nil || vr.VideoID == "" {
				continue
			}
			raw := domain.RawVideo{Name: vr.Title.String(), VideoID: vr.VideoID}
			if vr.PublishedTimeText != nil {
				raw.Published = vr.PublishedTimeText.String()
			}
			if vr.ViewCountText != nil {
				raw.Views = parseCount(vr.ViewCountText.String())
			}
			videos = append(videos, raw)
			if limit > 0 && len(videos) >= limit {
				return videos, nil
			}
		}
	}
	pc.logger.Debug("scraped search page", "topic", topic, "videos", len(videos))
	return videos, nil
}

// TrendingVideos has no scraped source; the public trending listing was retired.
// It returns an empty result so callers fall through to "no videos found".
func (pc *PublicClient) TrendingVideos(_ context.Context, region, categoryID string, _ int) ([]domain.RawVideo, error) {
	pc.logger.Warn("trending is not available without an API key", "region", region, "category", categoryID)
	return nil, nil
}

// VideoStats reads the view count from the watch page. Likes and comments are not exposed there.
func (pc *PublicClient) VideoStats(ctx context.Context, videoID string) (domain.Stats, error) {
	watchURL := pc.host + "/watch?v=" + url.QueryEscape(videoID)

	var page watchPage
	if err := pc.fetchInitialData(ctx, watchURL, &page); err != nil {
		return domain.Stats{}, fmt.Errorf("scrape watch page %s: %w", videoID, err)
	}
	if page.Contents == nil || page.Contents.TwoColumnWatchNextResults == nil {
		return domain.Stats{}, fmt.Errorf("scrape watch page %s: %w: watch results missing", videoID, domain.ErrParse)
	}
	for _, c := range page.Contents.TwoColumnWatchNextResults.Results.Results.Contents {
		info := c.VideoPrimaryInfoRenderer
		if info == nil {
			continue
		}
		var stats domain.Stats
		if info.ViewCount != nil && info.ViewCount.VideoViewCountRenderer != nil {
			stats.Views = parseCount(info.ViewCount.VideoViewCountRenderer.ViewCount.String())
		}
		return stats, nil
	}
	return domain.Stats{}, fmt.Errorf("scrape watch page %s: %w: primary info missing", videoID, domain.ErrParse)
}

func (pc *PublicClient) fetchInitialData(ctx context.Context, pageURL string, v any) error {
	if err := pc.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", pc.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", domain.ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", domain.ErrQuotaExceeded, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", domain.ErrRemote, resp.StatusCode)
	}

	return extractInitialData(io.LimitReader(resp.Body, maxPageBytes), v)
}
