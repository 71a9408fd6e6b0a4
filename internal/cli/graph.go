package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
)

var (
	graphLimit     int
	graphIndex     string
	graphDirection string
	graphRelType   string
	graphParams    string
	graphMaxRows   int
	orphanLimit    int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Query the document knowledge graph directly",
	Long: `Low-level graph access plus reconciliation reports built on it.

Examples:
  struai graph node 018f3a... -p proj_abc123
  struai graph neighbors 018f3a... -p proj_abc123 --direction out
  struai graph cypher 'MATCH (n:Entity) RETURN n.name LIMIT 5' -p proj_abc123
  struai graph sheet-summary A-101 -p proj_abc123
  struai graph sheet-list -p proj_abc123
  struai graph resolve 018f3a... -p proj_abc123`,
}

var graphNodeCmd = &cobra.Command{
	Use:   "node <uuid>",
	Short: "Fetch one node by uuid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		result, err := p.DocQuery.NodeGet(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var graphSheetEntitiesCmd = &cobra.Command{
	Use:   "sheet-entities <sheet-id>",
	Short: "List graph entities on a sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		result, err := p.DocQuery.SheetEntities(cmd.Context(), args[0], struai.SheetEntitiesOptions{
			Limit: graphLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var graphSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a graph index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		result, err := p.DocQuery.Search(cmd.Context(), args[0], struai.DocSearchOptions{
			Index: graphIndex,
			Limit: graphLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var graphNeighborsCmd = &cobra.Command{
	Use:   "neighbors <uuid>",
	Short: "Expand one hop from a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		result, err := p.DocQuery.Neighbors(cmd.Context(), args[0], struai.NeighborsOptions{
			Direction:        graphDirection,
			RelationshipType: graphRelType,
			Limit:            graphLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var graphCypherCmd = &cobra.Command{
	Use:   "cypher <query>",
	Short: "Run a read-only Cypher query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		var params map[string]any
		if graphParams != "" {
			if err := json.Unmarshal([]byte(graphParams), &params); err != nil {
				return fmt.Errorf("parse --params: %w", err)
			}
		}
		result, err := p.DocQuery.Cypher(cmd.Context(), args[0], params, graphMaxRows)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var graphSheetSummaryCmd = &cobra.Command{
	Use:   "sheet-summary <sheet-id>",
	Short: "Reconciled health report for one sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		report, err := p.DocQuery.SheetSummary(cmd.Context(), args[0], orphanLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}

var graphSheetListCmd = &cobra.Command{
	Use:   "sheet-list",
	Short: "Project-wide sheet inventory cross-check",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		report, err := p.DocQuery.SheetList(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}

var graphResolveCmd = &cobra.Command{
	Use:   "resolve <uuid>",
	Short: "Resolve a node's outgoing references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project()
		if err != nil {
			return err
		}
		report, err := p.DocQuery.ReferenceResolve(cmd.Context(), args[0], graphLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}

func init() {
	graphCmd.PersistentFlags().IntVarP(&graphLimit, "limit", "n", 0, "max results (0 = default)")
	graphSearchCmd.Flags().StringVar(&graphIndex, "index", "", "search index (default entities)")
	graphNeighborsCmd.Flags().StringVar(&graphDirection, "direction", "both", "edge direction (in, out, both)")
	graphNeighborsCmd.Flags().StringVar(&graphRelType, "rel-type", "", "restrict to one relationship type")
	graphCypherCmd.Flags().StringVar(&graphParams, "params", "", "query parameters as JSON object")
	graphCypherCmd.Flags().IntVar(&graphMaxRows, "max-rows", 0, "row cap (0 = default)")
	graphSheetSummaryCmd.Flags().IntVar(&orphanLimit, "orphan-limit", 10, "max unreachable-node examples")

	graphCmd.AddCommand(graphNodeCmd)
	graphCmd.AddCommand(graphSheetEntitiesCmd)
	graphCmd.AddCommand(graphSearchCmd)
	graphCmd.AddCommand(graphNeighborsCmd)
	graphCmd.AddCommand(graphCypherCmd)
	graphCmd.AddCommand(graphSheetSummaryCmd)
	graphCmd.AddCommand(graphSheetListCmd)
	graphCmd.AddCommand(graphResolveCmd)
	rootCmd.AddCommand(graphCmd)
}
