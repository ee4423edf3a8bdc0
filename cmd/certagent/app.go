package main

import (
	"context"
	"log/slog"

	"github.com/Shubham-Nemade-24/certagent/internal/chunk"
	"github.com/Shubham-Nemade-24/certagent/internal/common"
	"github.com/Shubham-Nemade-24/certagent/internal/embed"
	"github.com/Shubham-Nemade-24/certagent/internal/extract"
	"github.com/Shubham-Nemade-24/certagent/internal/history"
	"github.com/Shubham-Nemade-24/certagent/internal/index"
	"github.com/Shubham-Nemade-24/certagent/internal/ingest"
	"github.com/Shubham-Nemade-24/certagent/internal/llm/ollama"
	"github.com/Shubham-Nemade-24/certagent/internal/pipeline"
	"github.com/Shubham-Nemade-24/certagent/internal/qa"
	"github.com/Shubham-Nemade-24/certagent/internal/records"
	"github.com/Shubham-Nemade-24/certagent/internal/registry"
	"github.com/Shubham-Nemade-24/certagent/internal/sheets"
	"github.com/Shubham-Nemade-24/certagent/internal/store"
)

// app holds the wired collaborators shared by the subcommands.
type app struct {
	cfg     *common.Config
	log     *slog.Logger
	idx     *index.BadgerIndex
	runs    *history.Store
	pipe    *pipeline.Pipeline
	intaker *ingest.Intaker
	ask     *qa.Service
}

func newApp(ctx context.Context, log *slog.Logger) (*app, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := registry.Open(cfg.Storage.RegistryPath, log)
	if err != nil {
		return nil, err
	}

	embedder := embed.NewOllamaEmbedder(embed.Config{
		BaseURL: cfg.Embed.BaseURL,
		Model:   cfg.Embed.Model,
		Timeout: cfg.Embed.Timeout,
	})
	idx, err := index.OpenBadger(cfg.Storage.IndexDir, embedder, log)
	if err != nil {
		return nil, err
	}

	runs, err := history.Open(cfg.Storage.HistoryPath, log)
	if err != nil {
		idx.Close()
		return nil, err
	}

	model := ollama.NewClient(ollama.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, log)

	// The spreadsheet is optional: without SHEET_ID the pipeline still
	// archives raw outputs and records history.
	var appender records.SpreadsheetAppender
	if cfg.Sheets.SpreadsheetID != "" {
		sa, err := sheets.NewAppender(ctx, sheets.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SheetName:       cfg.Sheets.SheetName,
		}, log)
		if err != nil {
			idx.Close()
			runs.Close()
			return nil, err
		}
		appender = sa
	} else {
		log.Warn("SHEET_ID not set; spreadsheet append disabled")
	}

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, log)

	pipe := &pipeline.Pipeline{
		Store:     store.New(cfg.Storage.DataDir, log),
		Registry:  reg,
		Extractor: extractor,
		Splitter:  chunk.NewSplitter(cfg.Chunk.Size, cfg.Chunk.Overlap),
		Index:     idx,
		Extract:   model,
		Archive:   records.NewArchive(cfg.Storage.OutputsDir, log),
		Appender:  appender,
		Runs:      runs,
		Logger:    log,
	}

	return &app{
		cfg:     cfg,
		log:     log,
		idx:     idx,
		runs:    runs,
		pipe:    pipe,
		intaker: &ingest.Intaker{Pipeline: pipe, Logger: log},
		ask:     &qa.Service{Index: idx, Answerer: model, Logger: log},
	}, nil
}

func (a *app) Close() {
	a.runs.Close()
	a.idx.Close()
}
