package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/history"
	"github.com/chrys/docquery/internal/ragengine"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a project's documents",
	Long: `Embeds the question, retrieves the closest indexed documents, and
generates an answer grounded in them. The sources used are listed with
their distance scores (lower is closer).`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("project", "", "project id (defaults to the only project)")
	askCmd.Flags().Int("top-k", 0, "number of documents to retrieve (defaults to config top_k)")
	askCmd.Flags().Bool("json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

// querySucceeded reports whether a query produced a real answer. The
// engine degrades internal failures to a canned fallback instead of an
// error, so history has to recognize that response to record a failure.
func querySucceeded(result *ragengine.QueryResult) bool {
	return result.Response != ragengine.FallbackResponse
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	projectFlag, _ := cmd.Flags().GetString("project")
	topK, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	if topK <= 0 {
		topK = cfg.TopK
	}

	result := engine.Query(ctx, question, topK)

	logHistory(cfg, history.Entry{
		ProjectID: projectID,
		Action:    history.ActionQuery,
		Detail:    question,
		Success:   querySucceeded(result),
	})

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Response)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range result.Sources {
			fmt.Printf("  %d. %s (distance %.4f)\n", i+1, src.DocumentName, src.Score)
		}
	}
	return nil
}
