package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/service"
)

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess <adherence|risk|interactions|symptoms>",
		Short: "Run one analyzer on a JSON request",
		Long: `Reads a JSON request from --file (or stdin when the flag is "-" or
omitted) and prints the assessment response.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseAnalyzerKind(args[0])
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			payload, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			assessor := service.NewAssessmentService(loggerFor(cmd))
			resp, err := service.Dispatch(cmd.Context(), assessor, kind, payload)
			if err != nil {
				return fmt.Errorf("assessment failed: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringP("file", "f", "-", "Request JSON file, or - for stdin")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
