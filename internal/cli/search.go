package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
)

var (
	searchLimit    int
	searchChannels []string
	searchContext  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the project knowledge graph",
	Long: `Run ranked search over entities, facts, and communities.

Examples:
  struai search "shear wall" -p proj_abc123
  struai search "W12x26" -p proj_abc123 --channels entities --graph-context`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results per channel")
	searchCmd.Flags().StringSliceVar(&searchChannels, "channels", nil, "channels to search (entities, facts, communities)")
	searchCmd.Flags().BoolVar(&searchContext, "graph-context", false, "include neighboring entities and relationships")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	resp, err := p.Search(cmd.Context(), args[0], struai.SearchOptions{
		Limit:               searchLimit,
		Channels:            searchChannels,
		IncludeGraphContext: searchContext,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(resp.Entities) == 0 && len(resp.Facts) == 0 && len(resp.Communities) == 0 {
		fmt.Println("No results.")
		return nil
	}

	if len(resp.Entities) > 0 {
		fmt.Printf("Entities (%d):\n", len(resp.Entities))
		for _, hit := range resp.Entities {
			label := ""
			if hit.Label != nil {
				label = *hit.Label
			}
			fmt.Printf("- %s [%s] (%.3f)\n", label, hit.Type, hit.Score)
			if verbose && hit.Description != nil && *hit.Description != "" {
				fmt.Printf("  %s\n", *hit.Description)
			}
		}
		fmt.Println()
	}
	if len(resp.Facts) > 0 {
		fmt.Printf("Facts (%d):\n", len(resp.Facts))
		for _, hit := range resp.Facts {
			text := hit.ID
			if hit.FactText != nil && *hit.FactText != "" {
				text = *hit.FactText
			}
			fmt.Printf("- %s (%.3f)\n", text, hit.Score)
		}
		fmt.Println()
	}
	if len(resp.Communities) > 0 {
		fmt.Printf("Communities (%d):\n", len(resp.Communities))
		for _, hit := range resp.Communities {
			name := hit.ID
			if hit.Name != nil && *hit.Name != "" {
				name = *hit.Name
			}
			fmt.Printf("- %s (%.3f)\n", name, hit.Score)
		}
	}
	return nil
}
