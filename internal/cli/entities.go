package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
)

var (
	entitySheetID string
	entityType    string
	entityFamily  string
	entityLimit   int
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List extracted entities",
	Long: `List entities in a project with optional filtering, or show one
entity with its full relation context.

Examples:
  struai entities -p proj_abc123 --sheet A-101
  struai entities -p proj_abc123 --type beam --limit 20
  struai entities get ent_abc123 -p proj_abc123`,
	RunE: runEntityList,
}

var entityGetCmd = &cobra.Command{
	Use:   "get <entity-id>",
	Short: "Show an entity with relations",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityGet,
}

func init() {
	entitiesCmd.Flags().StringVar(&entitySheetID, "sheet", "", "filter by sheet id")
	entitiesCmd.Flags().StringVarP(&entityType, "type", "t", "", "filter by entity type")
	entitiesCmd.Flags().StringVar(&entityFamily, "family", "", "filter by family")
	entitiesCmd.Flags().IntVarP(&entityLimit, "limit", "n", 50, "max results")

	entitiesCmd.AddCommand(entityGetCmd)
	rootCmd.AddCommand(entitiesCmd)
}

func runEntityList(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	entities, err := p.Entities.List(cmd.Context(), struai.EntityFilter{
		SheetID: entitySheetID,
		Type:    entityType,
		Family:  entityFamily,
		Limit:   entityLimit,
	})
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}

	if len(entities) == 0 {
		fmt.Println("No entities found.")
		return nil
	}

	fmt.Printf("Entities (%d):\n\n", len(entities))
	for _, e := range entities {
		fmt.Printf("- %s  %s [%s]", e.ID, e.Label, e.Type)
		if e.SheetID != nil {
			fmt.Printf("  sheet %s", *e.SheetID)
		}
		fmt.Println()
	}
	return nil
}

func runEntityGet(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	entity, err := p.Entities.Get(cmd.Context(), args[0], struai.GetEntityOptions{
		ExpandTarget: true,
	})
	if err != nil {
		return fmt.Errorf("get entity: %w", err)
	}
	return printJSON(cmd, entity)
}
