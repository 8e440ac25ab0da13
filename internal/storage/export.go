// Package storage writes result sets to disk: one-shot exports in several
// formats and the NDJSON trending snapshot read by the dashboard.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/qepting91/tubescout/internal/domain"
	"github.com/qepting91/tubescout/internal/present"
)

// Columns is the fixed column order of the tabular exports.
var Columns = []string{"Name", "Date", "Video ID", "Views", "Likes", "Comments"}

const sheetName = "Sheet1"

// Export writes videos to path in the format implied by its extension:
// .csv, .json, .xlsx, or the on-screen text format for anything else.
func Export(path string, videos []domain.Video) error {
	if len(videos) == 0 {
		return fmt.Errorf("export %s: no results to save", path)
	}
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = exportCSV(path, videos)
	case ".json":
		err = exportJSON(path, videos)
	case ".xlsx":
		err = exportXLSX(path, videos)
	default:
		err = exportText(path, videos)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func row(v domain.Video) []string {
	return []string{
		v.Name,
		v.Date.UTC().Format(domain.DateLayout),
		v.VideoID,
		present.Count(v.Views),
		present.Count(v.Likes),
		present.Count(v.Comments),
	}
}

func exportCSV(path string, videos []domain.Video) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, v := range videos {
		if err := w.Write(row(v)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func exportJSON(path string, videos []domain.Video) error {
	data, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func exportXLSX(path string, videos []domain.Video) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, v := range videos {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{v.Name, v.Date.UTC().Format(domain.DateLayout), v.VideoID, cellCount(v.Views), cellCount(v.Likes), cellCount(v.Comments)}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// cellCount keeps known counters numeric in the spreadsheet.
func cellCount(n *int64) any {
	if n == nil {
		return "N/A"
	}
	return *n
}

func exportText(path string, videos []domain.Video) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := present.Render(f, videos); err != nil {
		return err
	}
	return f.Close()
}
