package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// Extract pulls plain text and document info out of a PDF. Pages are
// joined with blank lines; pages that cannot be parsed are skipped
// rather than failing the whole document.
func (e *Extractor) Extract(_ context.Context, sub *domain.Submission) (extraction *domain.Extraction, err error) {
	if sub == nil || len(sub.Data) == 0 {
		return nil, domain.ErrInvalidInput
	}

	// The underlying parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			extraction = nil
			err = fmt.Errorf("%w: parsing pdf: %v", domain.ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(sub.Data), int64(len(sub.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	pages := reader.NumPage()
	var content strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(text)
	}

	title, author := documentInfo(reader)

	return &domain.Extraction{
		Text:      content.String(),
		PageCount: pages,
		Title:     title,
		Author:    author,
	}, nil
}

// documentInfo reads Title and Author from the trailer Info dictionary.
func documentInfo(reader *pdf.Reader) (title, author string) {
	info := reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return "", ""
	}
	return strings.TrimSpace(info.Key("Title").Text()),
		strings.TrimSpace(info.Key("Author").Text())
}
