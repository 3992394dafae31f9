package office

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extensions returns the file extensions this extractor handles.
// All of them are zip-and-XML formats converted in pure Go.
func Extensions() []string {
	return []string{"docx", "pptx", "odt"}
}

// Extractor handles office documents via docconv.
type Extractor struct{}

// New creates a new office document extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "office"
}

// Extract converts an office document to plain text.
func (e *Extractor) Extract(_ context.Context, sub *domain.Submission) (extraction *domain.Extraction, err error) {
	if sub == nil || len(sub.Data) == 0 {
		return nil, domain.ErrInvalidInput
	}

	// The underlying converter panics on archives missing their
	// content-type manifest.
	defer func() {
		if r := recover(); r != nil {
			extraction = nil
			err = fmt.Errorf("%w: converting %s: %v", domain.ErrExtractionFailed, filepath.Ext(sub.Filename), r)
		}
	}()

	mimeType := docconv.MimeTypeByExtension(sub.Filename)
	res, err := docconv.Convert(bytes.NewReader(sub.Data), mimeType, false)
	if err != nil {
		return nil, fmt.Errorf("%w: converting %s: %v", domain.ErrExtractionFailed, filepath.Ext(sub.Filename), err)
	}

	title := strings.TrimSpace(res.Meta["Title"])
	if title == "" {
		title = titleFromFilename(sub.Filename)
	}

	return &domain.Extraction{
		Text:   res.Body,
		Title:  title,
		Author: strings.TrimSpace(res.Meta["Author"]),
	}, nil
}

// titleFromFilename derives a readable title from the filename.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
