package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SentinelDate stands in for any publish date that could not be parsed.
var SentinelDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateLayout is the absolute timestamp format the Data API returns.
const DateLayout = "2006-01-02T15:04:05Z"

// RawVideo is what a backend returns before dates are normalized
type RawVideo struct {
	Name      string
	VideoID   string
	Published string
	Views     *int64
}

// Video is the clean, normalized record handed to callers and the cache
type Video struct {
	Name     string    `json:"name"`
	VideoID  string    `json:"video_id"`
	Date     time.Time `json:"date"`
	Views    *int64    `json:"views,omitempty"`
	Likes    *int64    `json:"likes,omitempty"`
	Comments *int64    `json:"comments,omitempty"`
}

// Stats holds the engagement counters of a single video. Unknown counters stay nil.
type Stats struct {
	Views    *int64
	Likes    *int64
	Comments *int64
}

// QueryKey identifies a topic search in the result cache
type QueryKey string

// SearchQuery represents a topic search request
type SearchQuery struct {
	Topic      string
	DaysAgo    int
	MaxResults int
}

// Key composes the cache key. Identical queries always yield identical keys.
func (q SearchQuery) Key() QueryKey {
	return QueryKey(fmt.Sprintf("%s_%d_%d", strings.TrimSpace(q.Topic), q.DaysAgo, q.MaxResults))
}

// Since returns the recency bound, or the zero time when DaysAgo is not positive.
func (q SearchQuery) Since(now time.Time) time.Time {
	if q.DaysAgo <= 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(q.DaysAgo) * 24 * time.Hour)
}

// TrendingQuery represents a most-popular chart request
type TrendingQuery struct {
	Region     string
	Category   string
	MaxResults int
}

const (
	DefaultRegion        = "US"
	DefaultTrendingLimit = 50
)

// WithDefaults fills in the default region and result cap.
func (q TrendingQuery) WithDefaults() TrendingQuery {
	if strings.TrimSpace(q.Region) == "" {
		q.Region = DefaultRegion
	}
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultTrendingLimit
	}
	return q
}

// Collector defines the interface for data fetching
type Collector interface {
	SearchVideos(ctx context.Context, topic string, since time.Time, limit int) ([]RawVideo, error)
	TrendingVideos(ctx context.Context, region, categoryID string, limit int) ([]RawVideo, error)
	VideoStats(ctx context.Context, videoID string) (Stats, error)
	Mode() string
}

// WatchURL returns the public page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
