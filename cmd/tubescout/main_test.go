package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/tubescout/internal/config"
	"github.com/qepting91/tubescout/internal/credential"
	"github.com/qepting91/tubescout/internal/storage"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Collector: config.CollectorConfig{Mode: "mock"},
		Cache:     config.CacheConfig{Driver: "file", File: filepath.Join(dir, "search_cache.json")},
		Dashboard: config.DashboardConfig{Port: "0"},
		KeyFile:   filepath.Join(dir, "youtube_api_key.txt"),
		DataDir:   filepath.Join(dir, "data"),
	}
	var out bytes.Buffer
	return &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		creds:  credential.NewFileStore(cfg.KeyFile),
		stdout: &out,
	}, &out, dir
}

func TestSearchCommand(t *testing.T) {
	a, out, dir := newTestApp(t)
	csvPath := filepath.Join(dir, "results.csv")

	err := a.run(context.Background(), "search", []string{"-topic", "golang", "-days", "30", "-max", "3", "-out", csvPath})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Name: [golang] Simulated upload #0")
	assert.Contains(t, text, "Video ID: mock_0")
	assert.Contains(t, text, "Views: 6000")
	assert.Contains(t, text, "---")
	assert.FileExists(t, csvPath)
	assert.FileExists(t, a.cfg.Cache.File)
}

func TestSearchCommand_Batch(t *testing.T) {
	a, out, dir := newTestApp(t)
	batch := filepath.Join(dir, "queries.csv")
	require.NoError(t, os.WriteFile(batch, []byte("topic,days,max\ngolang,7,2\nrust,7,1\n"), 0o644))

	require.NoError(t, a.run(context.Background(), "search", []string{"-batch", batch, "-enrich=false"}))
	assert.Contains(t, out.String(), "=== golang (7 days, max 2) ===")
	assert.Contains(t, out.String(), "=== rust (7 days, max 1) ===")
	assert.Contains(t, out.String(), "Views: N/A")
}

func TestSearchCommand_RequiresTopic(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, a.run(context.Background(), "search", nil))
}

func TestTrendingThenChart(t *testing.T) {
	a, out, dir := newTestApp(t)

	require.NoError(t, a.run(context.Background(), "trending", []string{"-region", "gb", "-max", "3"}))
	assert.Contains(t, out.String(), "Name: Trending in GB #1")

	snapshot, err := storage.ReadSnapshot(a.snapshotPath())
	require.NoError(t, err)
	require.Len(t, snapshot, 3)

	html := filepath.Join(dir, "chart.html")
	require.NoError(t, a.run(context.Background(), "chart", []string{"-out", html}))
	data, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Trending in GB #1")
}

func TestTrendingCommand_Enriches(t *testing.T) {
	a, out, _ := newTestApp(t)

	require.NoError(t, a.run(context.Background(), "trending", []string{"-max", "1"}))
	text := out.String()
	assert.Contains(t, text, "Video ID: trend_US__0")
	assert.Contains(t, text, "Likes: 110")
	assert.Contains(t, text, "Comments: 11")
	assert.NotContains(t, text, "N/A")

	snapshot, err := storage.ReadSnapshot(a.snapshotPath())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.NotNil(t, snapshot[0].Likes)
	assert.Equal(t, int64(110), *snapshot[0].Likes)
}

func TestTrendingCommand_NoEnrich(t *testing.T) {
	a, out, _ := newTestApp(t)

	require.NoError(t, a.run(context.Background(), "trending", []string{"-max", "1", "-enrich=false"}))
	assert.Contains(t, out.String(), "Views: 1000")
	assert.Contains(t, out.String(), "Likes: N/A")
}

func TestChart_NoSnapshot(t *testing.T) {
	a, _, dir := newTestApp(t)
	html := filepath.Join(dir, "chart.html")
	assert.Error(t, a.run(context.Background(), "chart", []string{"-out", html}))
	assert.NoFileExists(t, html)
}

func TestStatsCommand(t *testing.T) {
	a, out, _ := newTestApp(t)
	require.NoError(t, a.run(context.Background(), "stats", []string{"-id", "abc"}))
	assert.Equal(t, "Video ID: abc\nViews: 3000\nLikes: 30\nComments: 3\n", out.String())
}

func TestKeyCommand(t *testing.T) {
	a, out, _ := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "key", []string{"set", "AIzaSecret9876"}))
	out.Reset()
	require.NoError(t, a.run(ctx, "key", []string{"show"}))
	assert.Equal(t, "**********9876\n", out.String())

	require.NoError(t, a.run(ctx, "key", []string{"clear"}))
	out.Reset()
	require.NoError(t, a.run(ctx, "key", []string{"show"}))
	assert.Equal(t, "(not set)\n", out.String())

	assert.Error(t, a.run(ctx, "key", []string{"rotate"}))
	assert.Error(t, a.run(ctx, "key", nil))
}

func TestUnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, a.run(context.Background(), "bogus", nil))
}

func TestSetupLogger(t *testing.T) {
	assert.True(t, setupLogger("debug", "text").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, setupLogger("warn", "json").Enabled(context.Background(), slog.LevelInfo))
}
