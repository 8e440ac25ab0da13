package collector

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"github.com/qepting91/tubescout/internal/config"
	"github.com/qepting91/tubescout/internal/domain"
)

// NewCollector selects the correct implementation based on the mode.
// In auto mode the Data API is used only when a key is present and enabled;
// otherwise pages are scraped. The choice holds for the whole run.
func NewCollector(ctx context.Context, cfg config.CollectorConfig, apiKey string, useAPI bool, logger *slog.Logger) (domain.Collector, error) {
	newAPI := func() (domain.Collector, error) {
		var extra []option.ClientOption
		if cfg.APIEndpoint != "" {
			extra = append(extra, option.WithEndpoint(cfg.APIEndpoint))
		}
		return NewAPIClient(ctx, apiKey, cfg.Timeout, cfg.APIInterval, logger, extra...)
	}
	newPublic := func() (domain.Collector, error) {
		return NewPublicClient(cfg.ScrapeHost, cfg.UserAgent, cfg.Timeout, cfg.ScrapeInterval, logger)
	}

	switch cfg.Mode {
	case "api":
		if apiKey == "" {
			return nil, fmt.Errorf("an API key is required for api mode (run 'tubescout key set')")
		}
		return newAPI()
	case "public":
		return newPublic()
	case "mock":
		return NewMockClient(), nil
	case "auto", "":
		if useAPI && apiKey != "" {
			return newAPI()
		}
		return newPublic()
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'auto', 'api', 'public', or 'mock')", cfg.Mode)
	}
}
