package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionYes bool

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage vector collections",
	Long:  `Lists, inspects and removes the collections documents are ingested into.`,
	RunE:  runCollectionList,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	RunE:  runCollectionList,
}

var collectionStatsCmd = &cobra.Command{
	Use:   "stats [name]",
	Short: "Show point count and dimensions for a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionStats,
}

var collectionResetCmd = &cobra.Command{
	Use:   "reset [name]",
	Short: "Empty a collection, keeping its dimensions",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionReset,
}

var collectionDropCmd = &cobra.Command{
	Use:   "drop [name]",
	Short: "Remove a collection entirely",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDrop,
}

func init() {
	collectionResetCmd.Flags().BoolVarP(&collectionYes, "yes", "y", false, "skip confirmation")
	collectionDropCmd.Flags().BoolVarP(&collectionYes, "yes", "y", false, "skip confirmation")
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionStatsCmd)
	collectionCmd.AddCommand(collectionResetCmd)
	collectionCmd.AddCommand(collectionDropCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collections, err := collectionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	if len(collections) == 0 {
		cmd.Println("No collections. Run 'quarry ingest' to create one.")
		return nil
	}

	cmd.Printf("%-32s %10s %12s\n", "NAME", "POINTS", "DIMENSIONS")
	for i := range collections {
		cmd.Printf("%-32s %10d %12d\n",
			collections[i].Name, collections[i].Points, collections[i].Dimensions)
	}
	return nil
}

func runCollectionStats(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	stats, err := collectionService.Stats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("collection stats: %w", err)
	}

	cmd.Printf("Collection: %s\n", stats.Name)
	cmd.Printf("Points:     %d\n", stats.Points)
	cmd.Printf("Dimensions: %d\n", stats.Dimensions)
	return nil
}

func runCollectionReset(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	name := args[0]
	if !collectionYes && !confirm(cmd, fmt.Sprintf("Delete all points in %q?", name)) {
		cmd.Println("Aborted.")
		return nil
	}

	if err := collectionService.Reset(cmd.Context(), name); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}

	cmd.Printf("Collection %s reset.\n", name)
	return nil
}

func runCollectionDrop(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	name := args[0]
	if !collectionYes && !confirm(cmd, fmt.Sprintf("Drop collection %q and all its points?", name)) {
		cmd.Println("Aborted.")
		return nil
	}

	if err := collectionService.Drop(cmd.Context(), name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}

	cmd.Printf("Collection %s dropped.\n", name)
	return nil
}

// confirm asks a yes/no question on the command's input stream.
func confirm(cmd *cobra.Command, question string) bool {
	cmd.Printf("%s [y/N]: ", question)
	var answer string
	_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
