package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure DraftService implements the interfaces.
var (
	_ driving.DraftService    = (*DraftService)(nil)
	_ driven.PromptStoreAware = (*DraftService)(nil)
)

// defaultDraftSystem is the extraction contract, used when no prompt
// store is configured. The model may select, order and lightly format
// the supplied passages; it may not add content of its own.
const defaultDraftSystem = `You assemble documents from source passages. Follow these rules exactly:
1. Copy text from the passages verbatim. Do not paraphrase, summarise or reword.
2. Omit section headers, list items and questionnaire entries.
3. Only use substantive passages of at least 20 words.
4. You may choose which passages to include, their order, and paragraph breaks. Nothing else.
5. If no passage satisfies the instructions, reply with exactly: NO_RELEVANT_CONTENT
Never invent facts, numbers, names or dates that are not in the passages.`

// defaultDraftUser frames the passages and the caller's instructions.
const defaultDraftUser = `Source passages:

%s

Instructions: %s

Assemble the draft from the passages above, following your rules.`

// refusalMarker is the token the model answers with when nothing in the
// supplied passages satisfies the instructions.
const refusalMarker = "NO_RELEVANT_CONTENT"

// draftMaxTokens caps the generation response length.
const draftMaxTokens = 2000

// DraftService produces grounded drafts from ingested material.
//
// Drafting is an extraction contract, not a synthesis one: retrieval
// picks the admissible passages, the generation model may only select,
// order and format them, and the response carries every passage used so
// the caller can audit the output. When nothing clears the relevance
// threshold the model is never called at all.
type DraftService struct {
	search    *SearchService
	generator driven.GenerationService
	prompts   driven.PromptStore
}

// NewDraftService creates a draft service on top of retrieval.
// The generator may be nil, in which case drafting returns
// domain.ErrGenerationUnavailable while search keeps working.
func NewDraftService(search *SearchService, generator driven.GenerationService) *DraftService {
	return &DraftService{
		search:    search,
		generator: generator,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *DraftService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Draft retrieves passages for the request's keywords and asks the
// generation model to compose from them.
func (s *DraftService) Draft(ctx context.Context, req domain.DraftRequest) (*domain.Draft, error) {
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("%w: keywords are required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Instructions) == "" {
		return nil, fmt.Errorf("%w: instructions are required", domain.ErrInvalidInput)
	}
	if s.generator == nil {
		return nil, domain.ErrGenerationUnavailable
	}

	logger.Section("Draft Generation")

	query := strings.Join(req.Keywords, " ")
	sources, err := s.search.Search(ctx, query, domain.SearchOptions{
		Collection: req.Collection,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve sources: %w", err)
	}

	threshold := s.search.Threshold()

	// Nothing relevant: refuse without involving the model.
	if len(sources) == 0 {
		logger.Info("No passage cleared threshold %.2f, refusing", threshold)
		return &domain.Draft{
			Refused:   true,
			Sources:   []domain.SearchResult{},
			Threshold: threshold,
		}, nil
	}

	system, user := s.loadPrompts()
	prompt := fmt.Sprintf(user, formatSources(sources), req.Instructions)

	logger.Debug("Drafting from %d passages", len(sources))
	content, err := s.generator.Complete(ctx, driven.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   draftMaxTokens,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("generate draft: %w", err)
	}

	// The model itself may refuse when the passages do not cover the
	// instructions; surface that the same way as an empty retrieval.
	content = strings.TrimSpace(content)
	if content == "" || strings.Contains(content, refusalMarker) {
		logger.Info("Model found no usable content, refusing")
		return &domain.Draft{
			Refused:   true,
			Sources:   sources,
			Threshold: threshold,
		}, nil
	}

	return &domain.Draft{
		Content:   content,
		Sources:   sources,
		Threshold: threshold,
		Model:     s.generator.ModelName(),
	}, nil
}

// loadPrompts returns the system and user templates, falling back to
// the built-in defaults when no store is set or a prompt is missing.
func (s *DraftService) loadPrompts() (system, user string) {
	system, user = defaultDraftSystem, defaultDraftUser
	if s.prompts == nil {
		return system, user
	}
	if p, err := s.prompts.Load(driven.PromptDraftSystem); err == nil && strings.TrimSpace(p) != "" {
		system = p
	}
	if p, err := s.prompts.Load(driven.PromptDraftUser); err == nil && strings.Contains(p, "%s") {
		user = p
	}
	return system, user
}

// formatSources renders the retrieved passages as the numbered source
// block the user prompt template expects.
func formatSources(sources []domain.SearchResult) string {
	var b strings.Builder
	for i, src := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s (passage %d, similarity %.2f)\n%s",
			i+1, src.Filename, src.ChunkIndex, src.Score, src.Text)
	}
	return b.String()
}
