package extract

import (
	"context"
	"fmt"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	txt, warns, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return Result{Warnings: warns}, err
	}
	txt = Normalize(txt)
	var pages []PageText
	if txt != "" {
		pages = append(pages, PageText{Page: 1, Text: txt})
	}
	return Result{
		Pages:      pages,
		Provenance: ProvenanceOCR,
		Method:     "image-ocr",
		Warnings:   warns,
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
