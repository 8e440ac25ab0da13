// Package ingest reads batch search files.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/qepting91/tubescout/internal/domain"
)

const (
	DefaultDays = 30
	DefaultMax  = 10
	maxResults  = 50
)

// LoadQueries reads a CSV of topic,days,max rows with a header line.
// Invalid rows are skipped; missing or unparsable numbers fall back to the defaults.
func LoadQueries(path string) ([]domain.SearchQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadQueries(f)
}

func ReadQueries(src io.Reader) ([]domain.SearchQuery, error) {
	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(src))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var queries []domain.SearchQuery
	line := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 {
			continue // Skip header
		}

		// Validation (Fail-Soft)
		topic := strings.TrimSpace(record[0])
		if topic == "" || strings.HasPrefix(topic, "#") {
			continue
		}
		q := domain.SearchQuery{
			Topic:      topic,
			DaysAgo:    field(record, 1, DefaultDays),
			MaxResults: field(record, 2, DefaultMax),
		}
		if q.DaysAgo < 0 || q.MaxResults <= 0 {
			continue
		}
		if q.MaxResults > maxResults {
			q.MaxResults = maxResults
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func field(record []string, i, def int) int {
	if i >= len(record) {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(record[i]))
	if err != nil {
		return def
	}
	return n
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
