package extractors

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Registry maps file extensions to their extractors.
// It implements the ExtractorRegistry port.
type Registry struct {
	byExt map[string]driven.TextExtractor
}

// Compile-time check that Registry implements the port.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]driven.TextExtractor),
	}
}

// Register maps the given extensions to an extractor. Extensions are
// normalised to lower case with a leading dot, so "PDF", "pdf" and
// ".pdf" all register the same key. Later registrations win.
func (r *Registry) Register(extractor driven.TextExtractor, exts ...string) {
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.byExt[ext] = extractor
	}
}

// Lookup returns the extractor for a filename's extension.
// Unknown or missing extensions return ErrUnsupportedFormat.
func (r *Registry) Lookup(filename string) (driven.TextExtractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", domain.ErrUnsupportedFormat, filename)
	}
	extractor, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return extractor, nil
}

// Supported returns all registered extensions, sorted.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
