package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var (
	queryLimit     int
	queryThreshold float64
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the knowledge base by similarity",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of results")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", -1, "minimum score in [0,1]")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}

	k := queryLimit
	if k <= 0 {
		k = cfg.Retrieval.TopK
	}
	threshold := queryThreshold
	if threshold < 0 {
		threshold = cfg.Retrieval.ScoreThreshold
	}

	results, err := retriever.Retrieve(cmd.Context(), args[0], k, threshold)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, r := range results {
		cmd.Printf("  [%d] %s (chunk %d of %d, score %.2f)\n",
			r.Rank+1, r.Source, r.ChunkID+1, r.TotalChunks, r.Score)
		cmd.Printf("      %s\n", excerpt(r.Content, 160))
		cmd.Println()
	}
	return nil
}

// excerpt shortens content to at most n characters for display.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

var showLimit int

var showCmd = &cobra.Command{
	Use:   "show [document]",
	Short: "Print a document's chunks in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if retriever == nil {
			return errors.New("retrieval service not configured")
		}

		results, err := retriever.ByDocument(cmd.Context(), args[0], showLimit)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no document named %q", args[0])
			}
			return err
		}

		for _, r := range results {
			cmd.Printf("--- chunk %d of %d ---\n%s\n\n", r.ChunkID+1, r.TotalChunks, r.Content)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "maximum chunks to print (0 = all)")
	rootCmd.AddCommand(showCmd)
}
