// Package present turns pipeline output and failures into text for the terminal.
package present

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/qepting91/tubescout/internal/domain"
)

const separator = "---"

// Render writes one block per video, separated by "---" lines. Unknown counters print as N/A.
func Render(w io.Writer, videos []domain.Video) error {
	for i, v := range videos {
		if i > 0 {
			if _, err := fmt.Fprintf(w, "%s\n", separator); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, Block(v)); err != nil {
			return err
		}
	}
	return nil
}

// Block formats a single video the way Render prints it.
func Block(v domain.Video) string {
	return fmt.Sprintf("Name: %s\nDate: %s\nVideo ID: %s\nViews: %s\nLikes: %s\nComments: %s\nURL: %s\n",
		v.Name,
		v.Date.UTC().Format(domain.DateLayout),
		v.VideoID,
		Count(v.Views),
		Count(v.Likes),
		Count(v.Comments),
		domain.WatchURL(v.VideoID),
	)
}

// Count formats an optional counter.
func Count(n *int64) string {
	if n == nil {
		return "N/A"
	}
	return strconv.FormatInt(*n, 10)
}

// RenderStats writes the counters of a single video.
func RenderStats(w io.Writer, videoID string, s domain.Stats) error {
	_, err := fmt.Fprintf(w, "Video ID: %s\nViews: %s\nLikes: %s\nComments: %s\n",
		videoID, Count(s.Views), Count(s.Likes), Count(s.Comments))
	return err
}

// Message maps a failure to the text shown to the user. Each backend failure kind gets its own message.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "API quota exceeded or invalid API key."
	case errors.Is(err, domain.ErrNotFound):
		return "Requested resource not found."
	case errors.Is(err, domain.ErrParse):
		return "Could not read the results page; the page layout may have changed."
	case errors.Is(err, domain.ErrRemote):
		return fmt.Sprintf("An API error occurred: %v", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case errors.Is(err, context.Canceled):
		return "Search cancelled."
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}
