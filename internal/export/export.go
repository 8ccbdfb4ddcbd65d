// Package export writes the content library as CSV or Excel.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/render"
	"github.com/hyperjump/manabu/internal/storage"
)

// SheetName is the worksheet holding the library in Excel exports.
const SheetName = "Library"

// Columns is the header row of every export.
var Columns = []string{"video_id", "title", "channel", "description", "summary", "watched_at", "url"}

const pageSize = 500

// AllVideos reads the whole library from store.
func AllVideos(ctx context.Context, store storage.Storage) ([]*models.Video, error) {
	var all []*models.Video
	for offset := 0; ; offset += pageSize {
		page, err := store.ListVideos(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func row(v *models.Video) []string {
	watched := ""
	if !v.WatchedAt.IsZero() {
		watched = v.WatchedAt.UTC().Format(time.RFC3339)
	}
	return []string{v.ID, v.Title, v.Channel, v.Description, v.Summary, watched, render.WatchURL(v.ID)}
}

// WriteCSV writes videos as CSV with a header row.
func WriteCSV(w io.Writer, videos []*models.Video) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, v := range videos {
		if err := cw.Write(row(v)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes videos as an Excel workbook with a bold header row.
func WriteXLSX(w io.Writer, videos []*models.Video) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, 1, Columns); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, v := range videos {
		if err := setRow(f, i+2, row(v)); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, s := range values {
		cells[i] = s
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}
