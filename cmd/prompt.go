package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/projects"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Manage per-project system prompts",
	Long: `A project's system prompt is prepended to every answer-generation
request, letting you steer tone or add standing instructions.`,
}

var promptGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the project's system prompt",
	RunE:  runPromptGet,
}

var promptSetCmd = &cobra.Command{
	Use:   "set [prompt]",
	Short: "Set the project's system prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptSet,
}

var promptClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the project's system prompt",
	RunE:  runPromptClear,
}

func init() {
	for _, c := range []*cobra.Command{promptGetCmd, promptSetCmd, promptClearCmd} {
		c.Flags().String("project", "", "project id (defaults to the only project)")
		promptCmd.AddCommand(c)
	}
	rootCmd.AddCommand(promptCmd)
}

func promptContext(cmd *cobra.Command) (*projects.PromptStore, string, error) {
	projectFlag, _ := cmd.Flags().GetString("project")

	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return nil, "", err
	}
	projectID, err := resolveProject(registry, projectFlag)
	if err != nil {
		return nil, "", err
	}
	store, err := openPromptStore(cfg)
	if err != nil {
		return nil, "", err
	}
	return store, projectID, nil
}

func runPromptGet(cmd *cobra.Command, args []string) error {
	store, projectID, err := promptContext(cmd)
	if err != nil {
		return err
	}
	prompt := store.Get(projectID)
	if prompt == "" {
		fmt.Printf("No system prompt set for %s\n", projectID)
		return nil
	}
	fmt.Println(prompt)
	return nil
}

func runPromptSet(cmd *cobra.Command, args []string) error {
	store, projectID, err := promptContext(cmd)
	if err != nil {
		return err
	}
	if err := store.Set(projectID, args[0]); err != nil {
		return err
	}
	fmt.Printf("System prompt set for %s\n", projectID)
	return nil
}

func runPromptClear(cmd *cobra.Command, args []string) error {
	store, projectID, err := promptContext(cmd)
	if err != nil {
		return err
	}
	if err := store.Delete(projectID); err != nil {
		return err
	}
	fmt.Printf("System prompt cleared for %s\n", projectID)
	return nil
}
