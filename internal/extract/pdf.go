package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extractPDF tries the text layer first and falls back to rasterized OCR
// when the layer is empty (scanned PDFs).
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	pages, warns, err := e.pdfToText(ctx, path)
	if err == nil && !empty(pages) {
		return Result{
			Pages:      pages,
			Provenance: ProvenanceNative,
			Method:     "pdf-text",
			Warnings:   warns,
		}, nil
	}
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdftotext: %v", err))
	}
	e.logger.Info("extract.pdf.fallback_ocr", "path", path)

	ocrPages, ocrWarns, err := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		return Result{Warnings: warns}, err
	}
	return Result{
		Pages:      ocrPages,
		Provenance: ProvenanceOCR,
		Method:     "pdf-ocr",
		Warnings:   warns,
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]PageText, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, err
	}
	// pdftotext separates pages with a form feed
	var pages []PageText
	for i, raw := range strings.Split(string(out), "\f") {
		if txt := Normalize(raw); txt != "" {
			pages = append(pages, PageText{Page: i + 1, Text: txt})
		}
	}
	return pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([]PageText, []string, error) {
	tmpDir, err := os.MkdirTemp("", "ca-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("extract.pdf.tmp_cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var pages []PageText
	var warns []string
	for i, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		// page numbers follow render order, so multi-page scans keep
		// distinct chunk ID buckets per page
		if txt = Normalize(txt); txt != "" {
			pages = append(pages, PageText{Page: i + 1, Text: txt})
		}
	}
	return pages, warns, nil
}
