// Package dashboard charts the latest trending snapshot.
package dashboard

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/qepting91/tubescout/internal/domain"
	"github.com/qepting91/tubescout/internal/storage"
)

const maxLabel = 40

var ErrNoData = errors.New("no trending data to display")

// RenderTrending writes a horizontal bar chart of views per video as an HTML page.
func RenderTrending(w io.Writer, videos []domain.Video) error {
	if len(videos) == 0 {
		return ErrNoData
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Trending",
			Theme:     types.ThemeWesteros,
			Width:     "1200px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Trending Videos", Subtitle: "Views per video"}),
	)

	names := make([]string, 0, len(videos))
	views := make([]opts.BarData, 0, len(videos))
	// Reverse so the first video ends up on top once the axes are swapped.
	for i := len(videos) - 1; i >= 0; i-- {
		v := videos[i]
		names = append(names, label(v.Name))
		var n int64
		if v.Views != nil {
			n = *v.Views
		}
		views = append(views, opts.BarData{Name: v.VideoID, Value: n})
	}
	bar.SetXAxis(names).AddSeries("Views", views)
	bar.XYReversal()

	return bar.Render(w)
}

func label(name string) string {
	r := []rune(name)
	if len(r) <= maxLabel {
		return name
	}
	return string(r[:maxLabel-3]) + "..."
}

// Handler renders the snapshot at dataFile on every request.
func Handler(dataFile string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		videos, err := storage.ReadSnapshot(dataFile)
		if err != nil {
			logger.Error("Snapshot read failed", "file", dataFile, "error", err)
			http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
			return
		}
		if len(videos) == 0 {
			http.Error(w, "No trending data to display. Run `tubescout trending` first.", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderTrending(w, videos); err != nil {
			logger.Error("Chart render failed", "error", err)
		}
	})
	return mux
}

func StartServer(dataFile string, port string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(dataFile, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
