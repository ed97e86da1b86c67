package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestor == nil {
			return errors.New("ingestion service not configured")
		}

		docs, err := ingestor.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}

		if listJSON {
			data, err := json.MarshalIndent(docs, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal documents: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		if len(docs) == 0 {
			cmd.Println("No documents ingested.")
			return nil
		}

		for _, doc := range docs {
			cmd.Printf("  %s  %s  %d chunks  %d bytes  %s\n",
				doc.IngestedAt.Format("2006-01-02 15:04"), doc.Name,
				doc.ChunkCount, doc.Size, doc.Hash[:12])
		}
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find [term]",
	Short: "Find documents by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestor == nil {
			return errors.New("ingestion service not configured")
		}

		names, err := ingestor.SearchFiles(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("searching documents: %w", err)
		}
		if len(names) == 0 {
			cmd.Println("No matching documents.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [name-or-hash]",
	Short: "Remove a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestor == nil {
			return errors.New("ingestion service not configured")
		}

		removed, err := ingestor.Remove(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("removing document: %w", err)
		}
		if !removed {
			return fmt.Errorf("no document matching %q", args[0])
		}
		cmd.Printf("Removed %s\n", args[0])
		return nil
	},
}

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all documents and index entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestor == nil {
			return errors.New("ingestion service not configured")
		}
		if !clearForce {
			return errors.New("refusing to clear without --force")
		}

		if err := ingestor.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing knowledge base: %w", err)
		}
		cmd.Println("Knowledge base cleared.")
		return nil
	},
}

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestor == nil {
			return errors.New("ingestion service not configured")
		}

		stats, err := ingestor.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		if statsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal stats: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		cmd.Printf("Documents: %d\n", stats.DocumentCount)
		cmd.Printf("Chunks:    %d\n", stats.ChunkCount)
		cmd.Printf("Size:      %.2f MB\n", stats.TotalSizeMB)
		for ext, n := range stats.TypeHistogram {
			cmd.Printf("  %-6s %d\n", ext, n)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	clearCmd.Flags().BoolVar(&clearForce, "force", false, "confirm the clear")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(listCmd, findCmd, removeCmd, clearCmd, statsCmd)
}
