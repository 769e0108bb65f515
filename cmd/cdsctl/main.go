// Command cdsctl runs assessments from the command line and manages the
// feedback store, database migrations and MCP client registration.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cds-scoring-engine/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cdsctl",
		Short:        "Clinical decision support scoring engine tools",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(assessCmd())
	root.AddCommand(feedbackCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(setupCmd())
	return root
}

func loggerFor(cmd *cobra.Command) *logrus.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	logger := config.NewLogger(level, "text")
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
