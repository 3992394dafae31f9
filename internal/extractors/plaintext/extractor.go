package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// maxTitleRunes caps how long a first line can be and still serve as a title.
const maxTitleRunes = 200

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text and markdown documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extract passes the text through unchanged, deriving a title from the
// first line or, failing that, the filename.
func (e *Extractor) Extract(_ context.Context, sub *domain.Submission) (*domain.Extraction, error) {
	if sub == nil || len(sub.Data) == 0 {
		return nil, domain.ErrInvalidInput
	}

	text := string(sub.Data)

	return &domain.Extraction{
		Text:  text,
		Title: extractTitle(text, sub.Filename),
	}, nil
}

// extractTitle uses the first non-empty line as the title, stripping
// markdown heading markers. Falls back to a cleaned-up filename.
func extractTitle(text, filename string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" || utf8.RuneCountInString(line) > maxTitleRunes {
			break
		}
		return line
	}

	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
