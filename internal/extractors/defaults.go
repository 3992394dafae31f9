package extractors

import (
	"github.com/custodia-labs/quarry/internal/extractors/office"
	"github.com/custodia-labs/quarry/internal/extractors/pdf"
	"github.com/custodia-labs/quarry/internal/extractors/plaintext"
)

// RegisterDefaults registers all built-in extractors with the registry.
// Call this during application initialisation to enable standard formats.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New(), "pdf")
	r.Register(office.New(), office.Extensions()...)
	r.Register(plaintext.New(), "txt", "md", "markdown", "text", "log")
}
