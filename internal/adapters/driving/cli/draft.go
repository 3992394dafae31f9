package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var (
	draftKeywords   []string
	draftCollection string
	draftLimit      int
	draftJSON       bool
	draftNoSources  bool
)

var draftCmd = &cobra.Command{
	Use:   "draft [instructions]",
	Short: "Draft content from the knowledge base",
	Long: `Assembles a draft from passages retrieved with --keywords.

The generation model may only select, order and format the retrieved
passages - it is not allowed to write content of its own. When nothing
in the knowledge base clears the relevance threshold, the command
reports a refusal instead of inventing text. The passages used are
listed with the draft so the output can be audited against them.`,
	Args: cobra.ExactArgs(1),
	RunE: runDraft,
}

func init() {
	draftCmd.Flags().StringSliceVarP(&draftKeywords, "keywords", "k", nil, "retrieval keywords (required)")
	draftCmd.Flags().StringVarP(&draftCollection, "collection", "c", "", "collection to draw from (default from settings)")
	draftCmd.Flags().IntVarP(&draftLimit, "limit", "n", 0, "maximum passages to retrieve (default from settings)")
	draftCmd.Flags().BoolVar(&draftJSON, "json", false, "output draft as JSON")
	draftCmd.Flags().BoolVar(&draftNoSources, "no-sources", false, "omit the source listing")
	_ = draftCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) error {
	if draftService == nil {
		return errors.New("draft service not configured")
	}

	req := domain.DraftRequest{
		Keywords:     draftKeywords,
		Instructions: args[0],
		Collection:   draftCollection,
		Limit:        draftLimit,
	}

	draft, err := draftService.Draft(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("draft failed: %w", err)
	}

	if draftJSON {
		data, err := json.MarshalIndent(draft, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal draft: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if draft.Refused {
		cmd.Printf("No relevant content found (threshold %.2f).\n", draft.Threshold)
		cmd.Println("Nothing in the knowledge base covers these keywords; the draft was refused.")
		return nil
	}

	cmd.Println(draft.Content)

	if !draftNoSources && len(draft.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Sources (%d passages, threshold %.2f, model %s):\n",
			len(draft.Sources), draft.Threshold, draft.Model)
		for i := range draft.Sources {
			cmd.Printf("  [%d] %s passage %d (similarity %.2f)\n",
				i+1, draft.Sources[i].Filename, draft.Sources[i].ChunkIndex, draft.Sources[i].Score)
		}
	}

	return nil
}
