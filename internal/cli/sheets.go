package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sheetListLimit int

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List and inspect ingested sheets",
	Long: `List sheets in a project, show one sheet's detail or extracted
annotations, or delete a sheet.

Examples:
  struai sheets -p proj_abc123
  struai sheets get A-101 -p proj_abc123
  struai sheets annotations A-101 -p proj_abc123
  struai sheets delete A-101 -p proj_abc123`,
	RunE: runSheetList,
}

var sheetGetCmd = &cobra.Command{
	Use:   "get <sheet-id>",
	Short: "Show a sheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetGet,
}

var sheetAnnotationsCmd = &cobra.Command{
	Use:   "annotations <sheet-id>",
	Short: "Show a sheet's extracted annotations",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetAnnotations,
}

var sheetDeleteCmd = &cobra.Command{
	Use:   "delete <sheet-id>",
	Short: "Delete a sheet and its graph content",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetDelete,
}

func init() {
	sheetsCmd.Flags().IntVarP(&sheetListLimit, "limit", "n", 100, "max results")

	sheetsCmd.AddCommand(sheetGetCmd)
	sheetsCmd.AddCommand(sheetAnnotationsCmd)
	sheetsCmd.AddCommand(sheetDeleteCmd)
	rootCmd.AddCommand(sheetsCmd)
}

func runSheetList(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	sheets, err := p.Sheets.List(cmd.Context(), sheetListLimit)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}

	if len(sheets) == 0 {
		fmt.Println("No sheets found.")
		return nil
	}

	fmt.Printf("Sheets (%d):\n\n", len(sheets))
	for _, sheet := range sheets {
		name := ""
		if sheet.Title != nil {
			name = *sheet.Title
		} else if sheet.Name != nil {
			name = *sheet.Name
		}
		fmt.Printf("- %s  p%d  %dx%d  %d entities", sheet.ID, sheet.Page, sheet.Width, sheet.Height, sheet.EntitiesCount)
		if name != "" {
			fmt.Printf("  %s", name)
		}
		fmt.Println()
	}
	return nil
}

func runSheetGet(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	sheet, err := p.Sheets.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get sheet: %w", err)
	}

	fmt.Printf("Sheet: %s\n", sheet.ID)
	if sheet.Title != nil && *sheet.Title != "" {
		fmt.Printf("  Title: %s\n", *sheet.Title)
	}
	fmt.Printf("  Page: %d\n", sheet.Page)
	fmt.Printf("  Size: %dx%d\n", sheet.Width, sheet.Height)
	fmt.Printf("  Entities: %d\n", sheet.EntitiesCount)
	if sheet.PageHash != "" {
		fmt.Printf("  Page hash: %s\n", sheet.PageHash)
	}
	if sheet.SourceDescription != nil && *sheet.SourceDescription != "" {
		fmt.Printf("  Source: %s\n", *sheet.SourceDescription)
	}
	return nil
}

func runSheetAnnotations(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	annotations, err := p.Sheets.Annotations(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get annotations: %w", err)
	}

	return printJSON(cmd, annotations)
}

func runSheetDelete(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	result, err := p.Sheets.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	fmt.Printf("Deleted sheet %s (%d entities, %d relationships removed)\n",
		result.SheetID, result.EntitiesDeleted, result.RelationshipsDeleted)
	return nil
}
