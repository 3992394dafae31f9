package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/adapters/driven/ai"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/core/services"
)

// newMigrateService is swappable for testing.
var newMigrateService = func(source, target driven.VectorStore) driving.MigrateService {
	return services.NewMigrateService(source, target)
}

var (
	migrateTarget string
	migratePath   string
	migrateDSN    string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [collection]",
	Short: "Copy a collection to another store backend",
	Long: `Copies every point of a collection from the active vector store to
another backend, batch by batch, then verifies the point counts match.
The source store is left untouched.

Typical use is promoting a local sqlite knowledge base to a shared
postgres instance, or pulling a shared collection down for offline use:

  quarry migrate knowledge --target postgres --dsn postgres://...
  quarry migrate knowledge --target sqlite --path ./local.db`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateTarget, "target", "t", "", "target backend: sqlite or postgres (required)")
	migrateCmd.Flags().StringVar(&migratePath, "path", "", "target database file (sqlite)")
	migrateCmd.Flags().StringVar(&migrateDSN, "dsn", "", "target connection string (postgres)")
	_ = migrateCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if vectorStore == nil {
		return errors.New("vector store not configured")
	}

	backend := domain.VectorBackend(migrateTarget)
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, migrateTarget)
	}

	target, err := ai.CreateVectorStore(cmd.Context(), &domain.StoreSettings{
		Backend: backend,
		Path:    migratePath,
		DSN:     migrateDSN,
	})
	if err != nil {
		return fmt.Errorf("opening target store: %w", err)
	}
	defer func() {
		if cerr := target.Close(); cerr != nil {
			cmd.PrintErrf("Warning: closing target store: %v\n", cerr)
		}
	}()

	report, err := newMigrateService(vectorStore, target).Migrate(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	cmd.Printf("Migrated collection %s: %d points in %d batch(es).\n",
		report.Collection, report.Points, report.Batches)
	return nil
}
