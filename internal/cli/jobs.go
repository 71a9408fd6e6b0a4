package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
)

var (
	jobsWait    bool
	jobsTimeout time.Duration
)

var jobsCmd = &cobra.Command{
	Use:   "jobs <job-id>",
	Short: "Inspect or wait on ingestion jobs",
	Long: `Show the current status of a job, or wait for it to finish.

Examples:
  struai jobs job_abc123 -p proj_abc123
  struai jobs job_abc123 -p proj_abc123 --wait`,
	Args: cobra.ExactArgs(1),
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().BoolVarP(&jobsWait, "wait", "w", false, "wait for the job to finish")
	jobsCmd.Flags().DurationVar(&jobsTimeout, "timeout", 10*time.Minute, "wait budget")

	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}
	job := p.Job(args[0])

	if jobsWait {
		result, err := runJobProgress(job, struai.WaitOptions{Timeout: jobsTimeout})
		if err != nil {
			return err
		}
		if result != nil {
			printSheetResult(result)
		}
		return nil
	}

	status, err := job.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", status.JobID)
	fmt.Printf("  Status: %s\n", status.Status)
	if status.Page != nil {
		fmt.Printf("  Page: %d\n", *status.Page)
	}
	if status.Error != nil && *status.Error != "" {
		fmt.Printf("  Error: %s\n", *status.Error)
	}
	if status.Result != nil {
		fmt.Println("\nResult:")
		fmt.Printf("  Sheet: %s\n", status.Result.SheetID)
		fmt.Printf("  Entities created: %d\n", status.Result.EntitiesCreated)
		fmt.Printf("  Relationships created: %d\n", status.Result.RelationshipsCreated)
		if status.Result.Skipped {
			fmt.Println("  Skipped: sheet was already ingested")
		}
	}
	return nil
}
