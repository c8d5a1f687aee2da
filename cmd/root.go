package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Local semantic search and question answering over your documents",
	Long: `Docquery indexes text, markdown, and PDF documents into local
per-project vector stores and answers natural-language questions about
them using an LLM, grounded in the most relevant documents. All index
data stays on your machine.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
