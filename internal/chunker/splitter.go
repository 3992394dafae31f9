// Package chunker splits extracted text into token-bounded passages.
//
// Splitting is recursive: paragraphs are kept whole when they fit the
// token budget, oversized paragraphs fall back to line splits, then word
// splits, and only separator-less runs are cut mid-word at a rune
// boundary. Separators stay attached to the piece before them, so every
// passage is an exact substring of the input and stripping each
// passage's overlap prefix reconstructs the original text.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// DefaultChunkSize is the default passage budget in tokens.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between passages in tokens.
const DefaultChunkOverlap = 200

// separators in descending priority. A piece is only split at the next
// level when it exceeds the budget at the current one.
var separators = []string{"\n\n", "\n", " "}

// Splitter produces token-bounded passages from text.
// It implements the Splitter port.
type Splitter struct {
	counter   driven.TokenCounter
	chunkSize int
	overlap   int
}

// Compile-time check that Splitter implements the port.
var _ driven.Splitter = (*Splitter)(nil)

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the passage budget in tokens.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between passages in tokens.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter using the given token counter.
func New(counter driven.TokenCounter, opts ...Option) *Splitter {
	s := &Splitter{
		counter:   counter,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split chunks text into passages of at most the configured token
// budget. Whitespace-only input produces no passages.
func (s *Splitter) Split(text string) ([]domain.Passage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.assemble(s.decompose(text, 0)), nil
}

// unit is an indivisible piece of text that fits the token budget.
type unit struct {
	text   string
	tokens int
}

// decompose breaks text into budget-sized units, trying coarser
// separators before finer ones. Concatenating the returned units in
// order yields text exactly.
func (s *Splitter) decompose(text string, level int) []unit {
	n := s.counter.Count(text)
	if n <= s.chunkSize {
		return []unit{{text: text, tokens: n}}
	}
	if level >= len(separators) {
		return s.hardCut(text)
	}

	var units []unit
	for _, piece := range splitKeep(text, separators[level]) {
		units = append(units, s.decompose(piece, level+1)...)
	}
	return units
}

// splitKeep splits text around sep, leaving each separator attached to
// the piece before it so the pieces concatenate back to text exactly.
func splitKeep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// hardCut slices a separator-less run into budget-sized units at rune
// boundaries.
func (s *Splitter) hardCut(text string) []unit {
	var units []unit
	runes := []rune(text)
	for len(runes) > 0 {
		take := len(runes)
		if s.counter.Count(string(runes)) > s.chunkSize {
			take = s.largestFit(runes)
		}
		piece := string(runes[:take])
		units = append(units, unit{text: piece, tokens: s.counter.Count(piece)})
		runes = runes[take:]
	}
	return units
}

// largestFit binary searches the longest rune prefix within the token
// budget. It always takes at least one rune so cutting makes progress.
func (s *Splitter) largestFit(runes []rune) int {
	lo, hi := 1, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.counter.Count(string(runes[:mid])) <= s.chunkSize {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// assemble greedily packs units into passages, seeding each passage
// after the first with the tail of its predecessor as overlap.
func (s *Splitter) assemble(units []unit) []domain.Passage {
	var passages []domain.Passage

	var cur []unit
	curTokens := 0
	overlapRunes := 0

	emit := func() {
		var b strings.Builder
		for _, u := range cur {
			b.WriteString(u.text)
		}
		text := b.String()
		passages = append(passages, domain.Passage{
			Index:      len(passages),
			Text:       text,
			TokenCount: s.counter.Count(text),
			CharCount:  utf8.RuneCountInString(text),
			Overlap:    overlapRunes,
		})
	}

	for _, u := range units {
		if len(cur) > 0 && curTokens+u.tokens > s.chunkSize {
			emit()

			tail, tailTokens := s.overlapTail(cur)
			// Shrink the seed when the incoming unit would overflow the budget.
			for len(tail) > 0 && tailTokens+u.tokens > s.chunkSize {
				tailTokens -= tail[0].tokens
				tail = tail[1:]
			}

			cur = cur[:0:0]
			cur = append(cur, tail...)
			curTokens = tailTokens
			overlapRunes = 0
			for _, o := range tail {
				overlapRunes += utf8.RuneCountInString(o.text)
			}
		}
		cur = append(cur, u)
		curTokens += u.tokens
	}
	if len(cur) > 0 {
		emit()
	}

	return passages
}

// overlapTail returns the longest run of trailing units whose combined
// token count stays within the overlap budget.
func (s *Splitter) overlapTail(units []unit) ([]unit, int) {
	total := 0
	start := len(units)
	for start > 0 && total+units[start-1].tokens <= s.overlap {
		start--
		total += units[start].tokens
	}
	return units[start:], total
}
