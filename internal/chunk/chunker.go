// Package chunk splits normalized document text into overlapping windows with
// deterministic, addressable IDs. Chunk IDs are the idempotency key for the
// vector index: recomputing chunks for the same text with the same parameters
// always yields identical IDs and texts.
package chunk

import (
	"fmt"
	"strings"

	"github.com/Shubham-Nemade-24/certagent/internal/extract"
)

// Separator joins chunk texts when building the content hash and the
// extraction context. Changing it changes every content hash, so it is fixed.
const Separator = "\n\n---\n\n"

// Chunk is one contiguous slice of a document's extracted text.
type Chunk struct {
	ID     string // "<source>:<page>:<seq>"
	Text   string
	Source string
	Page   int
	Seq    int // zero-based, resets when the page changes
}

// Splitter performs character-window segmentation.
type Splitter struct {
	Size    int // window budget in characters (runes)
	Overlap int // characters shared with the previous chunk
}

// NewSplitter returns a Splitter with the given parameters. An out-of-range
// size defaults to 800; an out-of-range overlap defaults to a tenth of the
// size, so Overlap < Size always holds.
func NewSplitter(size, overlap int) Splitter {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	return Splitter{Size: size, Overlap: overlap}
}

// Split segments the per-page texts of one document, in page order, into
// chunks with composite IDs. Empty pages produce no chunks.
func (s Splitter) Split(source string, pages []extract.PageText) []Chunk {
	var out []Chunk
	for _, p := range pages {
		seq := 0
		for _, text := range s.windows(p.Text) {
			out = append(out, Chunk{
				ID:     fmt.Sprintf("%s:%d:%d", source, p.Page, seq),
				Text:   text,
				Source: source,
				Page:   p.Page,
				Seq:    seq,
			})
			seq++
		}
	}
	return out
}

// windows cuts text into Size-rune windows advancing by Size-Overlap,
// preferring a paragraph, sentence, or word boundary inside the second half
// of the window before falling back to a hard cut. Pure function of its
// input and the splitter parameters.
func (s Splitter) windows(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	var out []string
	start := 0
	for start < len(runes) {
		end := start + s.Size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		end = s.cut(runes, start, end)
		out = append(out, string(runes[start:end]))

		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// cut moves end back to the nearest natural boundary, searching only the
// second half of the window so every chunk keeps making progress.
func (s Splitter) cut(runes []rune, start, end int) int {
	floor := start + s.Size/2
	pair := func(a, b rune) int {
		for i := end - 1; i > floor; i-- {
			if runes[i-1] == a && runes[i] == b {
				return i + 1
			}
		}
		return -1
	}
	single := func(r rune) int {
		for i := end - 1; i > floor; i-- {
			if runes[i] == r {
				return i + 1
			}
		}
		return -1
	}
	if i := pair('\n', '\n'); i > 0 {
		return i
	}
	if i := single('\n'); i > 0 {
		return i
	}
	if i := pair('.', ' '); i > 0 {
		return i
	}
	if i := single(' '); i > 0 {
		return i
	}
	return end
}

// Join concatenates chunk texts with the fixed separator. The result feeds
// both the content hash and the extraction context.
func Join(chunks []Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, Separator)
}
