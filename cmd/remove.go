package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/history"
)

var removeCmd = &cobra.Command{
	Use:   "remove [document-name]",
	Short: "Remove a document from a project's index",
	Long: `Deletes the named document from the project. The remaining
documents are re-indexed so searches stay consistent.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all documents from a project's index",
	RunE:  runClear,
}

func init() {
	removeCmd.Flags().String("project", "", "project id (defaults to the only project)")
	clearCmd.Flags().String("project", "", "project id (defaults to the only project)")
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	documentName := args[0]

	projectFlag, _ := cmd.Flags().GetString("project")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	projectID, err := resolveProject(registry, projectFlag)
	if err != nil {
		return err
	}

	engine, err := openEngine(cfg, projectID)
	if err != nil {
		return err
	}

	err = engine.DeleteDocument(ctx, documentName)
	logHistory(cfg, history.Entry{
		ProjectID: projectID,
		Action:    history.ActionDelete,
		Document:  documentName,
		Success:   err == nil,
	})
	if err != nil {
		return err
	}

	if err := registry.RemoveDocument(projectID, documentName); err != nil {
		return fmt.Errorf("updating project registry: %w", err)
	}

	fmt.Printf("Removed %q from %s\n", documentName, projectID)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	projectFlag, _ := cmd.Flags().GetString("project")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	projectID, err := resolveProject(registry, projectFlag)
	if err != nil {
		return err
	}

	engine, err := openEngine(cfg, projectID)
	if err != nil {
		return err
	}

	names := engine.DocumentNames()
	if err := engine.Clear(); err != nil {
		return err
	}
	for _, name := range names {
		if err := registry.RemoveDocument(projectID, name); err != nil {
			return fmt.Errorf("updating project registry: %w", err)
		}
	}

	logHistory(cfg, history.Entry{
		ProjectID: projectID,
		Action:    history.ActionClear,
		Success:   true,
	})

	fmt.Printf("Cleared %d documents from %s\n", len(names), projectID)
	return nil
}
