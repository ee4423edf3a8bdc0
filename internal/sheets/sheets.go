// Package sheets appends extraction records to a Google Sheets worksheet.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Shubham-Nemade-24/certagent/constants"
	"github.com/Shubham-Nemade-24/certagent/internal/records"
)

// Config carries the Google Sheets connection settings.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// Appender writes one row per extracted certificate to a spreadsheet.
// It satisfies records.SpreadsheetAppender.
type Appender struct {
	svc    *sheets.Service
	cfg    Config
	logger *slog.Logger

	headerChecked bool
}

var _ records.SpreadsheetAppender = (*Appender)(nil)

// NewAppender builds a Sheets client from a service-account credentials file.
func NewAppender(ctx context.Context, cfg Config, logger *slog.Logger) (*Appender, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Appender{svc: svc, cfg: cfg, logger: logger}, nil
}

// Append writes the record as one row below the current data. The header row
// is written once if the sheet is empty.
func (a *Appender) Append(ctx context.Context, rec records.Record) error {
	if err := a.ensureHeader(ctx); err != nil {
		return err
	}

	row := make([]any, 0, constants.RecordFieldCount)
	for _, v := range rec.Row() {
		row = append(row, v)
	}
	vr := &sheets.ValueRange{Values: [][]any{row}}

	_, err := a.svc.Spreadsheets.Values.
		Append(a.cfg.SpreadsheetID, a.cfg.SheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		a.logger.Error("sheets.append.error", "spreadsheet_id", a.cfg.SpreadsheetID, "error", err)
		return fmt.Errorf("append row: %w", err)
	}
	a.logger.Info("sheets.append.ok", "spreadsheet_id", a.cfg.SpreadsheetID, "sheet", a.cfg.SheetName)
	return nil
}

// ensureHeader writes the fixed column header to A1:I1 when the sheet has no
// data yet. Checked once per Appender.
func (a *Appender) ensureHeader(ctx context.Context) error {
	if a.headerChecked {
		return nil
	}

	readRange := fmt.Sprintf("%s!A1:I1", a.cfg.SheetName)
	resp, err := a.svc.Spreadsheets.Values.Get(a.cfg.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if len(resp.Values) == 0 {
		header := make([]any, 0, constants.RecordFieldCount)
		for _, h := range constants.RecordHeader {
			header = append(header, h)
		}
		vr := &sheets.ValueRange{Values: [][]any{header}}
		_, err := a.svc.Spreadsheets.Values.
			Update(a.cfg.SpreadsheetID, readRange, vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("write header row: %w", err)
		}
		a.logger.Info("sheets.header.written", "sheet", a.cfg.SheetName)
	}
	a.headerChecked = true
	return nil
}
