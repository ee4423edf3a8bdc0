// Package export produces XLSX workbooks from the run history, so the
// extraction results remain usable without spreadsheet access.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Shubham-Nemade-24/certagent/constants"
	"github.com/Shubham-Nemade-24/certagent/internal/history"
	"github.com/Shubham-Nemade-24/certagent/internal/records"
)

// Service is a tiny façade over the history store that produces XLSX bytes.
type Service struct {
	runs   *history.Store
	logger *slog.Logger
}

func NewService(runs *history.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runs: runs, logger: logger}
}

// ExportRunsXLSX returns an XLSX workbook (as bytes) of recorded runs, newest
// first, limited to limit rows (0 means all). Runs whose raw response parsed
// into a record also carry the nine extraction columns.
func (s *Service) ExportRunsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Runs"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := append([]string{"Processed At", "Source", "Status", "Error"}, constants.RecordHeader...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range runs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(2, r.Source)
		write(3, r.Status)
		write(4, truncate(r.ErrorMsg, 140))

		if r.RawResponse != "" {
			if rec, err := records.ParseRow(r.RawResponse); err == nil {
				for i, v := range rec.Row() {
					write(5+i, v)
				}
			}
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 36) // source
	_ = f.SetColWidth(sheet, "C", "C", 24) // status
	_ = f.SetColWidth(sheet, "D", "D", 40) // error
	_ = f.SetColWidth(sheet, "E", "M", 24) // record fields

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(runs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
