package driven

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// TextExtractor turns opaque document bytes into text plus metadata.
//
// Implementations may run in-process (pdf, docx, plaintext) or call a
// remote parse API. An extractor either returns a usable Extraction or
// an error; judging the quality of a successful extraction is the
// caller's job.
type TextExtractor interface {
	// Extract produces text and metadata from the submission's bytes.
	Extract(ctx context.Context, sub *domain.Submission) (*domain.Extraction, error)

	// Name identifies the extractor in logs and job records.
	Name() string
}

// ExtractorRegistry selects the local extractor for a filename.
type ExtractorRegistry interface {
	// Lookup returns the extractor registered for the filename's
	// extension, or domain.ErrUnsupportedFormat.
	Lookup(filename string) (TextExtractor, error)

	// Supported returns the registered extensions, sorted,
	// with leading dots (".pdf").
	Supported() []string
}
