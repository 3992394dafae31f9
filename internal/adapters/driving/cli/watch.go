package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/adapters/driving/watch"
	"github.com/custodia-labs/quarry/internal/extractors"
)

var (
	watchCollection string
	watchDebounce   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest files as they change",
	Long: `Turns a directory into a drop folder.

Files created or modified under the directory (including new
subdirectories) are submitted to the ingestion pipeline once they stop
changing. Because document ids derive from filenames, editing a watched
file re-ingests it in place. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchCollection, "collection", "c", "", "target collection (default from settings)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"quiet period before a changed file is submitted")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingestion not configured")
	}

	registry := extractors.NewRegistry()
	extractors.RegisterDefaults(registry)

	watcher, err := watch.New(ingestOrchestrator, watch.Config{
		Collection: watchCollection,
		Debounce:   watchDebounce,
		Extensions: registry.Supported(),
		Notify: func(path string, jobIDs []string, err error) {
			if err != nil {
				cmd.PrintErrf("FAILED %s: %v\n", path, err)
				return
			}
			cmd.Printf("Submitted %s (%d job(s))\n", path, len(jobIDs))
		},
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			cmd.PrintErrf("Warning: closing watcher: %v\n", cerr)
		}
	}()

	if err := watcher.Watch(args[0]); err != nil {
		return fmt.Errorf("watching %s: %w", args[0], err)
	}

	cmd.Printf("Watching %s. Press Ctrl+C to stop.\n", args[0])
	if err := watcher.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
