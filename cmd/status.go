package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a project's index status and document list",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("project", "", "project id (defaults to the only project)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	info := engine.CollectionInfo()
	project := registry.Get(projectID)

	fmt.Printf("Project:   %s (%q)\n", info.ProjectID, project.DisplayName)
	fmt.Printf("Documents: %d\n", info.DocumentCount)
	fmt.Printf("Data dir:  %s\n", info.DataDir)

	names := engine.DocumentNames()
	if len(names) > 0 {
		fmt.Println("\nIndexed documents:")
		for _, name := range names {
			fmt.Printf("  - %s\n", name)
		}
	}
	return nil
}
