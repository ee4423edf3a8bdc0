package extract

import (
	"context"
	"errors"
	"time"
)

// ErrNoText is returned when neither the primary method nor the OCR
// fallback yields any text for a document.
var ErrNoText = errors.New("no extractable text")

// Provenance tags how the text was obtained.
const (
	ProvenanceNative = "native" // PDF text layer
	ProvenanceOCR    = "ocr"
)

// PageText is the normalized text of one page, 1-based.
type PageText struct {
	Page int
	Text string
}

// Result is the extracted, normalized text of a whole document.
type Result struct {
	Pages      []PageText
	Provenance string // "native" | "ocr"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
}

// TextExtractor turns a stored file into normalized per-page text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}
