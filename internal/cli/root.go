// Package cli provides the command-line interface for struai.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
	"github.com/struai/struai-go/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.3.0"

	// Global flags
	verbose     bool
	projectID   string
	flagBaseURL string
	flagAPIKey  string

	// Global config, logger, and API client
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	apiClient  *struai.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "struai",
	Short: "Document analysis and knowledge graph client",
	Long: `struai talks to the stru.ai document-analysis service: ingest drawing
sheets, track analysis jobs, query the extracted knowledge graph, and crop
regions out of page rasters.

Most commands operate on a project; pass it with --project or set it once
in ~/.struai.yaml.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if flagBaseURL != "" {
			cfg.BaseURL = flagBaseURL
		}
		if flagAPIKey != "" {
			cfg.APIKey = flagAPIKey
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)

		opts := []struai.Option{
			struai.WithLogger(logger),
			struai.WithTimeout(cfg.Timeout),
			struai.WithMaxRetries(cfg.MaxRetries),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, struai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.PageCacheDir != "" {
			opts = append(opts, struai.WithPageCacheDir(cfg.PageCacheDir))
		}

		apiClient, err = struai.New(cfg.APIKey, opts...)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// project opens a handle for the --project flag value without a server
// round trip.
func project() (*struai.Project, error) {
	if projectID == "" {
		return nil, errors.New("--project is required")
	}
	return apiClient.Projects.Open(projectID), nil
}

// printJSON pretty-prints a response for commands whose output is too
// nested for columns.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "project id")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL override")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key override")
}
