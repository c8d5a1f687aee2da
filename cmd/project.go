package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/config"
	"github.com/chrys/docquery/internal/history"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage local projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [project-id]",
	Short: "Delete a project and all its indexed data",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	id, err := registry.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	logHistory(cfg, history.Entry{
		ProjectID: id,
		Action:    history.ActionProjectCreated,
		Detail:    args[0],
		Success:   true,
	})

	fmt.Printf("Created project %s\n", id)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	all := registry.List()
	if len(all) == 0 {
		fmt.Println("No projects. Create one with `docquery project create <name>`.")
		return nil
	}

	for _, p := range all {
		fmt.Printf("  %s  %q  %d documents  created %s\n",
			p.ID, p.DisplayName, len(p.Documents), p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	id := args[0]
	if err := registry.Delete(id); err != nil {
		return err
	}

	// Drop the project's index and metadata files as well.
	dir := filepath.Join(cfg.DataDir, ragDataDirName, id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing project data %s: %w", dir, err)
	}

	logHistory(cfg, history.Entry{
		ProjectID: id,
		Action:    history.ActionProjectDeleted,
		Success:   true,
	})

	fmt.Printf("Deleted project %s\n", id)
	return nil
}

// logHistory records an operation in the history store. History is an
// auxiliary trail; failures are reported but never fail the command.
func logHistory(cfg *config.Config, entry history.Entry) {
	store, database, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer database.Close()

	if err := store.Log(context.Background(), entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
	}
}
