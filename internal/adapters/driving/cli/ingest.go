package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var (
	ingestCollection string
	ingestNoWait     bool
)

// ingestPollInterval is how often job progress is checked while waiting.
const ingestPollInterval = 500 * time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]...",
	Short: "Ingest documents into the knowledge base",
	Long: `Submits documents to the ingestion pipeline.

Each file is extracted, split into passages, embedded and written to the
vector store. Directories are walked recursively; files with unsupported
extensions are skipped. Ingestion runs in the background - by default the
command waits and reports each job's outcome, use --no-wait to just print
the job ids and return.

Re-ingesting a file overwrites its previous passages instead of
duplicating them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "target collection (default from settings)")
	ingestCmd.Flags().BoolVar(&ingestNoWait, "no-wait", false, "submit and return without waiting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingestion not configured")
	}

	ctx := cmd.Context()

	var jobIDs []string
	for _, path := range args {
		ids, err := ingestOrchestrator.SubmitPath(ctx, path, ingestCollection)
		if err != nil {
			return fmt.Errorf("submitting %s: %w", path, err)
		}
		if len(ids) == 0 {
			cmd.Printf("No supported files under %s\n", path)
			continue
		}
		jobIDs = append(jobIDs, ids...)
	}

	if len(jobIDs) == 0 {
		return nil
	}

	cmd.Printf("Submitted %d job(s)\n", len(jobIDs))
	if ingestNoWait {
		for _, id := range jobIDs {
			cmd.Printf("  %s\n", id)
		}
		return nil
	}

	failed := 0
	for _, id := range jobIDs {
		job, err := waitWithProgress(ctx, cmd, id)
		if err != nil {
			return fmt.Errorf("waiting for job %s: %w", id, err)
		}
		if job.State == domain.StateError {
			failed++
			cmd.Printf("  FAILED %s: %s\n", job.Filename, job.Error)
			continue
		}
		cmd.Printf("  OK %s: %d passages, %d tokens (%s extraction)\n",
			job.Filename, job.PassageCount, job.TokenCount, job.Method)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d job(s) failed", failed, len(jobIDs))
	}
	return nil
}

// waitWithProgress blocks on one job, printing state changes as the
// pipeline advances.
func waitWithProgress(ctx context.Context, cmd *cobra.Command, id string) (*domain.IngestJob, error) {
	done := make(chan struct{})
	var final *domain.IngestJob
	var waitErr error
	go func() {
		final, waitErr = ingestOrchestrator.Wait(ctx, id, ingestPollInterval)
		close(done)
	}()

	ticker := time.NewTicker(ingestPollInterval)
	defer ticker.Stop()

	var lastState domain.JobState
	for {
		select {
		case <-done:
			return final, waitErr
		case <-ticker.C:
			// Progress is best effort; the wait goroutine owns the result.
			job, err := ingestOrchestrator.Job(ctx, id)
			if err == nil && job.State != lastState && !job.State.Terminal() {
				cmd.Printf("  %s: %s...\n", job.Filename, job.State)
				lastState = job.State
			}
		}
	}
}
