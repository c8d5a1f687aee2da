package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize docquery configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure docquery and generates a .docquery.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
