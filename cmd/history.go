package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	Long:  `Lists recorded operations (ingest, query, delete, ...) newest first.`,
	RunE:  runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history entries older than the given age",
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().String("project", "", "filter by project id")
	historyCmd.Flags().String("action", "", "filter by action (ingest, query, delete, ...)")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "age threshold")
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	projectFlag, _ := cmd.Flags().GetString("project")
	actionFlag, _ := cmd.Flags().GetString("action")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, database, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := store.Query(ctx, history.QueryFilter{
		ProjectID: projectFlag,
		Action:    history.Action(actionFlag),
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return nil
	}

	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		line := fmt.Sprintf("  %s  %-16s %-8s %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, status, e.ProjectID)
		if e.Document != "" {
			line += "  " + e.Document
		}
		fmt.Println(line)
		if verbose && e.Detail != "" {
			fmt.Printf("      %s\n", e.Detail)
		}
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	olderThan, _ := cmd.Flags().GetDuration("older-than")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, database, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d history entries\n", deleted)
	return nil
}
