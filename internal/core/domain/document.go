package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// documentIDLength is the hex-prefix length of derived document ids.
const documentIDLength = 16

// previewRunes is the maximum length of a passage preview.
const previewRunes = 100

// DocumentID derives the stable document identifier for a filename.
// The same filename always maps to the same id, so re-ingesting a file
// overwrites its points rather than duplicating them.
func DocumentID(filename string) string {
	sum := sha256.Sum256([]byte(filename))
	return "doc_" + hex.EncodeToString(sum[:])[:documentIDLength]
}

// Submission is one document entering the ingestion pipeline:
// opaque bytes plus the filename they were submitted under.
type Submission struct {
	// Filename is the source filename, used to select an extractor
	// and to derive the document id.
	Filename string

	// Data is the raw document bytes.
	Data []byte

	// Collection overrides the default target collection when set.
	Collection string
}

// Extraction is the output of a text-extraction collaborator.
type Extraction struct {
	// Text is the full extracted text.
	Text string

	// PageCount is the number of pages, when the format has pages.
	PageCount int

	// Title is document title metadata, when present.
	Title string

	// Author is document author metadata, when present.
	Author string
}

// CharCount returns the number of runes in the extraction's trimmed
// text. The ingestion quality gate compares this against its minimum.
func (e *Extraction) CharCount() int {
	return utf8.RuneCountInString(strings.TrimSpace(e.Text))
}

// Passage is a contiguous slice of a document's extracted text.
// Passages are exact substrings of the source: concatenating each
// passage minus its declared overlap reconstructs the input.
// Immutable once created.
type Passage struct {
	// Index is the 0-based sequence position within the document.
	Index int

	// Text is the passage content, an exact slice of the source text.
	Text string

	// TokenCount is the passage length in model tokens.
	TokenCount int

	// CharCount is the passage length in runes.
	CharCount int

	// Overlap is the number of leading runes shared with the previous
	// passage. Zero for the first passage.
	Overlap int
}

// Preview returns a short excerpt of the passage text.
func (p Passage) Preview() string {
	runes := []rune(p.Text)
	if len(runes) <= previewRunes {
		return p.Text
	}
	return string(runes[:previewRunes]) + "..."
}

// Point is a passage plus its vector, as stored in a collection.
// The id is deterministic across re-ingestion: the same document and
// chunk index always produce the same point id.
type Point struct {
	// ID is the deterministic point identifier.
	ID string

	// DocumentID links back to the source document.
	DocumentID string

	// Filename is the source filename, carried for provenance.
	Filename string

	// ChunkIndex is the passage's position within the document.
	ChunkIndex int

	// Text is the passage content.
	Text string

	// TokenCount is the passage length in model tokens.
	TokenCount int

	// Vector is the fixed-dimensionality embedding.
	Vector []float32
}

// DocumentSummary aggregates a document's presence in a collection.
type DocumentSummary struct {
	// DocumentID is the stable document identifier.
	DocumentID string

	// Filename is the source filename.
	Filename string

	// Passages is the number of points the document contributes.
	Passages int
}

// CollectionStats describes one collection.
type CollectionStats struct {
	// Name is the collection name.
	Name string

	// Points is the number of stored points.
	Points int64

	// Dimensions is the vector dimensionality.
	Dimensions int
}
