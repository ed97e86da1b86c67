package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var (
	contextMaxTokens int
	contextReserved  int
	contextRatio     float64
	contextJSON      bool
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble a context blob for a query",
	Long: `Retrieves the best-matching chunks for the query and packs whole
chunks into the token budget, highest score first. The rendered blob
carries a provenance header per chunk and is ready to paste into a
generation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVar(&contextMaxTokens, "max-tokens", 0, "total context window (default from config)")
	contextCmd.Flags().IntVar(&contextReserved, "reserved", -1, "tokens held back for instructions and response")
	contextCmd.Flags().Float64Var(&contextRatio, "ratio", 0, "fraction of free tokens spent on snippets")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the assembled structure as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if builder == nil {
		return errors.New("context service not configured")
	}

	budget := domain.ContextBudget{
		MaxTokens:      cfg.Context.MaxTokens,
		ReservedTokens: cfg.Context.ReservedTokens,
		ContextRatio:   cfg.Context.ContextRatio,
	}
	if contextMaxTokens > 0 {
		budget.MaxTokens = contextMaxTokens
	}
	if contextReserved >= 0 {
		budget.ReservedTokens = contextReserved
	}
	if contextRatio > 0 {
		budget.ContextRatio = contextRatio
	}

	out, err := builder.Build(cmd.Context(), args[0], budget)
	if err != nil {
		return fmt.Errorf("assembling context: %w", err)
	}

	if contextJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(out.Text)
	if out.Truncated {
		cmd.PrintErrln("(truncated: budget excluded at least one retrieved chunk)")
	}
	return nil
}
