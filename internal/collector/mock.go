package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/qepting91/tubescout/internal/domain"
)

// MockClient implements domain.Collector but returns fake data
type MockClient struct {
	now func() time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{now: time.Now}
}

func (mc *MockClient) Mode() string { return "mock" }

// SearchVideos returns one video per day going back from now, mixing absolute
// timestamps and relative phrases the way the real backends do.
func (mc *MockClient) SearchVideos(_ context.Context, topic string, _ time.Time, limit int) ([]domain.RawVideo, error) {
	now := mc.now().UTC()
	var videos []domain.RawVideo
	for i := 0; i < limit; i++ {
		published := fmt.Sprintf("%d days ago", i)
		if i%2 == 0 {
			published = now.AddDate(0, 0, -i).Format(domain.DateLayout)
		}
		videos = append(videos, domain.RawVideo{
			Name:      fmt.Sprintf("[%s] Simulated upload #%d", topic, i),
			VideoID:   fmt.Sprintf("mock_%d", i),
			Published: published,
		})
	}
	return videos, nil
}

func (mc *MockClient) TrendingVideos(_ context.Context, region, categoryID string, limit int) ([]domain.RawVideo, error) {
	now := mc.now().UTC()
	var videos []domain.RawVideo
	for i := 0; i < limit; i++ {
		views := int64((limit - i) * 1000)
		videos = append(videos, domain.RawVideo{
			Name:      fmt.Sprintf("Trending in %s #%d", region, i+1),
			VideoID:   fmt.Sprintf("trend_%s_%s_%d", region, categoryID, i),
			Published: now.Add(-time.Duration(i) * time.Hour).Format(domain.DateLayout),
			Views:     &views,
		})
	}
	return videos, nil
}

func (mc *MockClient) VideoStats(_ context.Context, videoID string) (domain.Stats, error) {
	n := int64(len(videoID))
	views, likes, comments := n*1000, n*10, n
	return domain.Stats{Views: &views, Likes: &likes, Comments: &comments}, nil
}
