package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/qepting91/tubescout/internal/cache"
	"github.com/qepting91/tubescout/internal/collector"
	"github.com/qepting91/tubescout/internal/config"
	"github.com/qepting91/tubescout/internal/credential"
	"github.com/qepting91/tubescout/internal/dashboard"
	"github.com/qepting91/tubescout/internal/discovery"
	"github.com/qepting91/tubescout/internal/domain"
	"github.com/qepting91/tubescout/internal/ingest"
	"github.com/qepting91/tubescout/internal/present"
	"github.com/qepting91/tubescout/internal/storage"
)

const usage = `usage: tubescout [-config file] <command> [flags]

commands:
  search    search videos on a topic (cached)
  trending  list the most popular videos of a region
  stats     show view, like and comment counts of one video
  key       manage the API key: set <key> | clear | show
  chart     render the last trending snapshot to an HTML file
  serve     serve the trending chart over HTTP
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Setup
	logger := setupLogger("info", "json")
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger = setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// 2. Graceful Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	app := &app{
		cfg:    cfg,
		logger: logger,
		creds:  credential.NewFileStore(cfg.KeyFile),
		stdout: os.Stdout,
	}
	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, present.Message(err))
		logger.Debug("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	creds  *credential.FileStore
	stdout io.Writer
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "search":
		return a.search(ctx, args)
	case "trending":
		return a.trending(ctx, args)
	case "stats":
		return a.stats(ctx, args)
	case "key":
		return a.key(args)
	case "chart":
		return a.chart(args)
	case "serve":
		return a.serve(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// pipeline wires the collector chosen for this run to the configured cache.
// The returned cleanup closes the cache.
func (a *app) pipeline(ctx context.Context, noAPI bool) (*discovery.Pipeline, func(), error) {
	apiKey, err := a.creds.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := collector.NewCollector(ctx, a.cfg.Collector, apiKey, !noAPI, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize collector: %w", err)
	}
	a.logger.Info("Collector initialized", "mode", client.Mode())

	store, err := cache.Open(ctx, a.cfg.Cache, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("Cache close failed", "error", err)
		}
	}
	return discovery.New(client, store, a.logger), cleanup, nil
}

// inBackground runs fn on a worker goroutine and waits for it or for ctx.
func inBackground[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{v, err}
	}()
	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	topic := fs.String("topic", "", "search topic")
	days := fs.Int("days", ingest.DefaultDays, "only videos published in the last N days (0 for no bound)")
	maxResults := fs.Int("max", ingest.DefaultMax, "maximum number of results (1-50)")
	noAPI := fs.Bool("no-api", false, "scrape pages even when an API key is stored")
	enrich := fs.Bool("enrich", true, "look up view, like and comment counts per result")
	out := fs.String("out", "", "export results to file (.csv, .json, .xlsx, anything else as text)")
	batch := fs.String("batch", "", "CSV file of topic,days,max rows to search in turn")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var queries []domain.SearchQuery
	if *batch != "" {
		loaded, err := ingest.LoadQueries(*batch)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		queries = loaded
		a.logger.Info("Batch loaded", "file", *batch, "queries", len(queries))
	} else {
		if strings.TrimSpace(*topic) == "" {
			fs.Usage()
			return errors.New("a search topic is required (-topic)")
		}
		queries = []domain.SearchQuery{{Topic: *topic, DaysAgo: *days, MaxResults: *maxResults}}
	}

	p, cleanup, err := a.pipeline(ctx, *noAPI)
	if err != nil {
		return err
	}
	defer cleanup()

	var all []domain.Video
	for i, q := range queries {
		res, err := inBackground(ctx, func() (discovery.Result, error) {
			return p.Search(ctx, q)
		})
		if err != nil {
			return err
		}
		videos := res.Videos
		if *enrich && len(videos) > 0 {
			if videos, err = p.Enrich(ctx, videos); err != nil {
				return err
			}
		}

		if len(queries) > 1 {
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
			fmt.Fprintf(a.stdout, "=== %s (%d days, max %d) ===\n", q.Topic, q.DaysAgo, q.MaxResults)
		}
		if len(videos) == 0 {
			fmt.Fprintln(a.stdout, "No results.")
			continue
		}
		if err := present.Render(a.stdout, videos); err != nil {
			return err
		}
		all = append(all, videos...)
	}

	return a.export(*out, all)
}

func (a *app) trending(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trending", flag.ContinueOnError)
	region := fs.String("region", domain.DefaultRegion, "two-letter region code")
	category := fs.String("category", "All", "category name or id")
	maxResults := fs.Int("max", domain.DefaultTrendingLimit, "maximum number of results (1-50)")
	noAPI := fs.Bool("no-api", false, "scrape pages even when an API key is stored")
	enrich := fs.Bool("enrich", true, "look up view, like and comment counts per result")
	out := fs.String("out", "", "export results to file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, cleanup, err := a.pipeline(ctx, *noAPI)
	if err != nil {
		return err
	}
	defer cleanup()

	q := domain.TrendingQuery{Region: strings.ToUpper(*region), Category: *category, MaxResults: *maxResults}
	res, err := inBackground(ctx, func() (discovery.Result, error) {
		return p.Trending(ctx, q)
	})
	if err != nil {
		return err
	}
	if len(res.Videos) == 0 {
		fmt.Fprintln(a.stdout, "No trending videos available.")
		return nil
	}
	videos := res.Videos
	if *enrich {
		if videos, err = p.Enrich(ctx, videos); err != nil {
			return err
		}
	}
	if err := present.Render(a.stdout, videos); err != nil {
		return err
	}
	if err := a.snapshot(videos); err != nil {
		a.logger.Warn("Snapshot not saved", "error", err)
	}
	return a.export(*out, videos)
}

// snapshot replaces the trending snapshot the chart and dashboard read.
func (a *app) snapshot(videos []domain.Video) error {
	writer := &storage.WriterService{FilePath: a.snapshotPath()}
	input := make(chan domain.Video)
	var wg sync.WaitGroup
	wg.Add(1)
	go writer.Start(&wg, input)
	for _, v := range videos {
		input <- v
	}
	close(input)
	wg.Wait()
	if writer.Err != nil {
		return writer.Err
	}
	a.logger.Info("Snapshot saved", "file", writer.FilePath, "count", writer.Written)
	return nil
}

func (a *app) snapshotPath() string {
	return filepath.Join(a.cfg.DataDir, "trending.json")
}

func (a *app) export(path string, videos []domain.Video) error {
	if path == "" {
		return nil
	}
	if len(videos) == 0 {
		fmt.Fprintln(os.Stderr, "No results to save.")
		return nil
	}
	if err := storage.Export(path, videos); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Results saved to %s\n", path)
	return nil
}

func (a *app) stats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	id := fs.String("id", "", "video id")
	noAPI := fs.Bool("no-api", false, "scrape the watch page even when an API key is stored")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}

	p, cleanup, err := a.pipeline(ctx, *noAPI)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := inBackground(ctx, func() (domain.Stats, error) {
		return p.Stats(ctx, *id)
	})
	if err != nil {
		return err
	}
	return present.RenderStats(a.stdout, *id, stats)
}

func (a *app) key(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: tubescout key set <key> | clear | show")
	}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			return errors.New("usage: tubescout key set <key>")
		}
		if err := a.creds.Save(args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "API key updated successfully.")
	case "clear":
		if err := a.creds.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "API key removed. Searches will scrape pages.")
	case "show":
		k, err := a.creds.Load()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, credential.Mask(k))
	default:
		return fmt.Errorf("unknown key action %q", args[0])
	}
	return nil
}

func (a *app) chart(args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	in := fs.String("in", a.snapshotPath(), "trending snapshot to chart")
	out := fs.String("out", "trending.html", "HTML file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	videos, err := storage.ReadSnapshot(*in)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	if err := dashboard.RenderTrending(f, videos); err != nil {
		if errors.Is(err, dashboard.ErrNoData) {
			os.Remove(*out)
		}
		return err
	}
	fmt.Fprintf(os.Stderr, "Chart written to %s\n", *out)
	return nil
}

func (a *app) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.String("port", a.cfg.Dashboard.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting Dashboard", "port", *port, "snapshot", a.snapshotPath())
		errCh <- dashboard.StartServer(a.snapshotPath(), *port, a.logger)
	}()
	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard failed: %w", err)
	case <-ctx.Done():
		return nil
	}
}
