// Package cli provides the insightctl command-line interface.
package cli

import (
	"encoding/json"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/GregMSThompson/insights-backend/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "insightctl",
	Short: "Offline tools for the marketing insights backend",
	Long: `insightctl analyzes local exports with the deterministic engine, previews
schedule run times and manages the platform app secrets.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.New()
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(nextRunCmd)
	rootCmd.AddCommand(secretCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
