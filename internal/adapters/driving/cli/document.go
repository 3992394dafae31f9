package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCollection string

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long: `Lists and removes the documents stored in a collection.

A document is identified by the stable id derived from its filename;
'quarry document list' shows the ids alongside the filenames.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in a collection",
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Remove a document's passages from a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.PersistentFlags().StringVarP(&documentCollection, "collection", "c", "",
		"collection to operate on (default from settings)")
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

// resolveCollection applies the settings default when no flag was given.
func resolveCollection() string {
	if documentCollection != "" {
		return documentCollection
	}
	if appSettings != nil {
		return appSettings.Ingest.Collection
	}
	return ""
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collection := resolveCollection()
	docs, err := collectionService.Documents(cmd.Context(), collection)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in collection %s.\n", collection)
		return nil
	}

	cmd.Printf("%-22s %-40s %8s\n", "DOCUMENT", "FILENAME", "PASSAGES")
	for i := range docs {
		cmd.Printf("%-22s %-40s %8d\n", docs[i].DocumentID, docs[i].Filename, docs[i].Passages)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collection := resolveCollection()
	if err := collectionService.DeleteDocument(cmd.Context(), collection, args[0]); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	cmd.Printf("Document %s removed from %s.\n", args[0], collection)
	return nil
}
