package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	projectDescription string
	projectListLimit   int
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
	Long: `List, create, inspect, and delete projects.

Examples:
  struai projects
  struai projects create "Tower B" --description "Structural set rev 3"
  struai projects get proj_abc123
  struai projects delete proj_abc123`,
	RunE: runProjectList,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectGetCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectGet,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and all its data",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	projectsCmd.Flags().IntVarP(&projectListLimit, "limit", "n", 50, "max results")
	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "project description")

	projectsCmd.AddCommand(projectCreateCmd)
	projectsCmd.AddCommand(projectGetCmd)
	projectsCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectList(cmd *cobra.Command, args []string) error {
	projects, err := apiClient.Projects.List(cmd.Context(), projectListLimit)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	fmt.Printf("Projects (%d):\n\n", len(projects))
	for _, p := range projects {
		fmt.Printf("- %s  %s\n", p.ID, p.Name)
		if verbose && p.Description != nil && *p.Description != "" {
			fmt.Printf("  %s\n", *p.Description)
		}
	}
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	p, err := apiClient.Projects.Create(cmd.Context(), args[0], projectDescription)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	fmt.Printf("Created project %s (%s)\n", p.Data.Name, p.ID())
	return nil
}

func runProjectGet(cmd *cobra.Command, args []string) error {
	p, err := apiClient.Projects.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	fmt.Printf("Project: %s\n", p.ID())
	fmt.Printf("  Name: %s\n", p.Data.Name)
	if p.Data.Description != nil && *p.Data.Description != "" {
		fmt.Printf("  Description: %s\n", *p.Data.Description)
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	result, err := apiClient.Projects.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if result.Deleted {
		fmt.Printf("Deleted project %s\n", result.ID)
	} else {
		fmt.Printf("Project %s was not deleted\n", result.ID)
	}
	return nil
}
