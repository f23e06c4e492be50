package cli

import (
	"github.com/spf13/cobra"

	"github.com/clausewise/clausewise/pkg/logger"
)

// RootCmd builds the clausewise command tree.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clausewise",
		Short: "Contract compliance analyzer backed by a local language model",
		Long: "Clausewise analyzes contract PDFs against a fixed set of compliance questions " +
			"and offers retrieval-augmented chat over uploaded documents.",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logLevel, logJSON, err := logger.GetLoggerConfig(cmd)
			if err != nil {
				logLevel, logJSON = "info", false
			}
			logger.SetupLogger(logLevel, logJSON)
		},
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().String("env-file", "", "Optional .env file to load before reading configuration")
	rootCmd.AddCommand(ServeCmd())
	return rootCmd
}
