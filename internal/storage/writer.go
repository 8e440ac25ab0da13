package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/qepting91/tubescout/internal/domain"
)

// WriterService is the single owner of a snapshot file: producers hand it videos
// over a channel and only its goroutine touches the file.
type WriterService struct {
	FilePath string

	// Written and Err are valid once the WaitGroup passed to Start is done.
	Written int
	Err     error
}

// Start replaces the snapshot with the videos received on input, one JSON object
// per line. It always drains input so producers never block on a failed writer.
func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan domain.Video) {
	defer wg.Done()

	f, err := w.open()
	if err != nil {
		w.Err = err
		for range input {
		}
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && w.Err == nil {
			w.Err = fmt.Errorf("close snapshot: %w", cerr)
		}
	}()

	enc := json.NewEncoder(f)
	for v := range input {
		if w.Err != nil {
			continue
		}
		// Write as NDJSON
		if err := enc.Encode(v); err != nil {
			w.Err = fmt.Errorf("write snapshot: %w", err)
			continue
		}
		w.Written++
	}
}

func (w *WriterService) open() (*os.File, error) {
	if dir := filepath.Dir(w.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	f, err := os.OpenFile(w.FilePath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return f, nil
}

// ReadSnapshot loads an NDJSON snapshot. A missing file is an empty snapshot;
// undecodable lines are skipped.
func ReadSnapshot(path string) ([]domain.Video, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var videos []domain.Video
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var v domain.Video
		if err := json.Unmarshal(scanner.Bytes(), &v); err == nil {
			videos = append(videos, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return videos, fmt.Errorf("read snapshot: %w", err)
	}
	return videos, nil
}
