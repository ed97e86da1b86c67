// Package cli implements the corpus command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/adapters/driven/embedding"
	"github.com/custodia-labs/corpus/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/corpus/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/corpus/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/corpus/internal/chunker"
	"github.com/custodia-labs/corpus/internal/config"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/core/services"
	"github.com/custodia-labs/corpus/internal/logger"
	"github.com/custodia-labs/corpus/internal/parsers"
)

var (
	verbose    bool
	configPath string

	cfg       config.Config
	store     *sqlite.Store
	ingestor  driving.Ingestor
	retriever driving.Retriever
	builder   driving.ContextBuilder
)

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Local document knowledge base with semantic retrieval",
	Long: `Corpus ingests documents into a local knowledge base and answers
similarity queries over them. Documents are parsed, chunked, embedded
and indexed; retrieval packs the best-matching chunks into a context
blob for a generation consumer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		if ingestor != nil {
			// Already wired, e.g. by tests.
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.corpus/config.toml)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// initServices wires the pipeline from configuration.
func initServices() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	store, err = sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	index := store.VectorIndex(embedder.Dimensions())
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestor = services.NewIngestionService(
		parsers.NewDefaultRegistry(),
		splitter,
		embedder,
		store.Ledger(),
		index,
		services.WithMaxFileSize(cfg.MaxFileSizeBytes()),
	)
	retriever = services.NewRetrievalService(embedder, index)
	builder = services.NewContextService(retriever, 0, cfg.Retrieval.ScoreThreshold)
	return nil
}

// buildEmbedder constructs the configured provider behind the bounded
// decorator.
func buildEmbedder(ec config.Embedding) (driven.EmbeddingService, error) {
	var (
		svc driven.EmbeddingService
		err error
	)
	switch ec.Provider {
	case "openai":
		svc, err = openai.NewEmbeddingService(openai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			Model:      ec.Model,
			BaseURL:    ec.BaseURL,
			Dimensions: ec.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embedder: %w", err)
		}
	default:
		svc = ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
		})
	}
	return embedding.NewBounded(svc, ec.MaxInFlight, ec.RequestsPerSecond), nil
}

func closeServices() error {
	if store != nil {
		return store.Close()
	}
	return nil
}
