// Package extractors provides implementations of the TextExtractor
// interface for various document formats. Each extractor knows how to
// pull plain text (and whatever metadata the format carries) out of one
// family of file types.
//
// Extractors are registered with the Registry by extension at startup.
package extractors
