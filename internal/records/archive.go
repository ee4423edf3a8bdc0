package records

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive stores one raw model response per completed extraction attempt.
// Files are never overwritten; they are the recovery source of truth when
// the spreadsheet append fails.
type Archive struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

func NewArchive(dir string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{dir: dir, logger: logger, now: time.Now}
}

// Save writes the raw model response for source to a new file under the
// archive directory and returns its path.
func (a *Archive) Save(source, rawResponse string) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create outputs dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	stamp := a.now().Format("20060102_150405")
	path := filepath.Join(a.dir, fmt.Sprintf("extraction_%s_%s.txt", base, stamp))
	// same source within the same second: pick the next free name
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(a.dir, fmt.Sprintf("extraction_%s_%s_%d.txt", base, stamp, n))
	}

	var b strings.Builder
	b.WriteString("Source: " + source + "\n")
	b.WriteString("Model response:\n")
	b.WriteString(strings.TrimSpace(rawResponse) + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write raw output: %w", err)
	}
	a.logger.Info("archive.saved", "path", path)
	return path, nil
}
