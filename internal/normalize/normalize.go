// Package normalize turns the publish dates reported by the backends into
// comparable absolute timestamps.
//
// Relative phrases are approximated: minutes and hours collapse to now, a month
// is 30 days and a year only decrements the year field. Anything unrecognized
// becomes domain.SentinelDate so it sorts last instead of failing the search.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/tubescout/internal/domain"
)

// Normalizer converts a raw publish date into an absolute UTC time.
type Normalizer interface {
	Normalize(raw string) time.Time
}

var relativeRE = regexp.MustCompile(`(?i)^(?:streamed\s+)?(\d+)\s+(minute|hour|day|week|month|year)s?(?:\s+ago)?$`)

// Relative understands the Data API timestamp layout and "<N> <unit> ago" phrases.
type Relative struct {
	now func() time.Time
}

// New returns a normalizer reading the wall clock.
func New() *Relative {
	return &Relative{now: time.Now}
}

// WithClock returns a normalizer that reads now from clock.
func WithClock(clock func() time.Time) *Relative {
	return &Relative{now: clock}
}

func (r *Relative) Normalize(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t.UTC()
	}

	m := relativeRE.FindStringSubmatch(s)
	if m == nil {
		return domain.SentinelDate
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.SentinelDate
	}

	now := r.now().UTC().Truncate(time.Second)
	switch strings.ToLower(m[2]) {
	case "minute", "hour":
		return now
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, 0, -30*n)
	case "year":
		return time.Date(now.Year()-n, now.Month(), now.Day(),
			now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	}
	return domain.SentinelDate
}
