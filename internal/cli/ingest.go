package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
	"github.com/struai/struai-go/internal/pages"
)

var (
	ingestPage          string
	ingestSource        string
	ingestOnSheetExists string
	ingestNoWait        bool
	ingestTimeout       time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a drawing into a project",
	Long: `Upload a PDF or image, run drawing analysis, and build the sheet's
knowledge graph. Page selections like "1", "2-5", or "all" submit one
job per page.

By default the command waits with a progress display; pass --no-wait to
submit and print job ids instead.

Examples:
  struai ingest plans.pdf -p proj_abc123
  struai ingest plans.pdf -p proj_abc123 --pages 2-5
  struai ingest plans.pdf -p proj_abc123 --no-wait`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPage, "pages", "1", `pages to ingest ("1", "2-5", "all")`)
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source description stored with the sheet")
	ingestCmd.Flags().StringVar(&ingestOnSheetExists, "on-exists", "", "behavior when the sheet exists (skip, replace, version)")
	ingestCmd.Flags().BoolVar(&ingestNoWait, "no-wait", false, "submit and exit without waiting")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "per-job wait budget")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	selector, err := pages.Parse(ingestPage)
	if err != nil {
		return err
	}

	ingest, err := p.Sheets.Add(ctx, struai.AddSheetParams{
		Path:              args[0],
		Page:              selector.String(),
		SourceDescription: ingestSource,
		OnSheetExists:     ingestOnSheetExists,
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if ingestNoWait {
		for _, id := range ingest.JobIDs() {
			fmt.Println(id)
		}
		return nil
	}

	opts := struai.WaitOptions{Timeout: ingestTimeout}

	if ingest.Single != nil {
		result, err := runJobProgress(ingest.Single, opts)
		if err != nil {
			return err
		}
		if result != nil {
			printSheetResult(result)
		}
		return nil
	}

	fmt.Printf("Submitted %d jobs\n", len(ingest.Batch.Jobs))
	results, err := ingest.Batch.WaitAllParallel(ctx, opts)
	if err != nil {
		return err
	}
	for _, result := range results {
		printSheetResult(result)
	}
	return nil
}

func printSheetResult(r *struai.SheetResult) {
	if r.Skipped {
		fmt.Printf("Sheet %s: already ingested, skipped\n", r.SheetID)
		return
	}
	fmt.Printf("Sheet %s: %d entities, %d relationships\n",
		r.SheetID, r.EntitiesCreated, r.RelationshipsCreated)
}
