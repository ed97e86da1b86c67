package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var (
	ingestText  string
	ingestTitle string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the knowledge base",
	Long: `Parses, chunks, embeds and indexes the given files. Documents whose
content is already in the knowledge base are skipped. With --text, raw
text is ingested directly instead of files.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest this raw text instead of files")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "display title for --text")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingestion service not configured")
	}

	if ingestText != "" {
		res := ingestor.IngestText(cmd.Context(), ingestText, ingestTitle)
		printResult(cmd, res)
		if res.Status == domain.IngestError {
			return fmt.Errorf("ingest failed: %s", res.Message)
		}
		return nil
	}

	if len(args) == 0 {
		return errors.New("nothing to ingest: pass files or --text")
	}

	results := ingestor.IngestBatch(cmd.Context(), args)

	var failed int
	for _, res := range results {
		printResult(cmd, res)
		if res.Status == domain.IngestError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}
	return nil
}

func printResult(cmd *cobra.Command, res domain.IngestResult) {
	switch res.Status {
	case domain.IngestSuccess:
		cmd.Printf("  ingested  %s (%d chunks)\n", res.Name, res.ChunkCount)
	case domain.IngestSkipped:
		cmd.Printf("  skipped   %s (already ingested)\n", res.Name)
	case domain.IngestError:
		cmd.Printf("  failed    %s: %s\n", res.Name, res.Message)
	}
}
