package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cds-scoring-engine/internal/config"
	"github.com/cds-scoring-engine/internal/export"
	"github.com/cds-scoring-engine/internal/feedback"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect, export and import clinician feedback",
	}
	cmd.PersistentFlags().String("db", "", "SQLite feedback database (default $CDS_DATA_DIR/feedback.db)")
	cmd.PersistentFlags().String("database-url", "", "Postgres URL; overrides --db")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored entries as JSON, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}
	listCmd.Flags().Int("limit", feedback.DefaultListLimit, "Maximum entries")
	listCmd.Flags().Int("offset", 0, "Entries to skip")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every entry as JSON to stdout, a file or S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			bucket, _ := cmd.Flags().GetString("s3-bucket")
			key, _ := cmd.Flags().GetString("s3-key")

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if bucket != "" {
				lite := config.LoadLiteConfig()
				region, _ := cmd.Flags().GetString("s3-region")
				if region == "" {
					region = lite.S3Region
				}
				endpoint, _ := cmd.Flags().GetString("s3-endpoint")
				if endpoint == "" {
					endpoint = lite.S3Endpoint
				}
				uploader, err := export.NewS3Uploader(cmd.Context(), export.Config{
					Region:          region,
					Bucket:          bucket,
					Endpoint:        endpoint,
					AccessKeyID:     lite.S3AccessKeyID,
					SecretAccessKey: lite.S3SecretAccessKey,
				}, loggerFor(cmd))
				if err != nil {
					return err
				}
				key, err = uploader.UploadFeedback(cmd.Context(), store, key)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", bucket, key)
				return err
			}

			if out == "" || out == "-" {
				return store.ExportJSON(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := store.ExportJSON(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	exportCmd.Flags().StringP("out", "o", "-", "Output file, or - for stdout")
	exportCmd.Flags().String("s3-bucket", "", "Upload to this bucket instead of writing locally")
	exportCmd.Flags().String("s3-key", "", "Object key (default feedback/feedback_export_<timestamp>.json)")
	exportCmd.Flags().String("s3-region", "", "Bucket region (default $CDS_S3_REGION)")
	exportCmd.Flags().String("s3-endpoint", "", "S3-compatible endpoint (default $CDS_S3_ENDPOINT)")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import entries from a JSON export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			payload, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			imported, skipped, err := store.ImportJSON(cmd.Context(), bytes.NewReader(payload))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
			return err
		},
	}
	importCmd.Flags().StringP("file", "f", "-", "Export file, or - for stdin")

	cmd.AddCommand(countCmd, listCmd, exportCmd, importCmd)
	return cmd
}

func openStore(cmd *cobra.Command) (feedback.Store, error) {
	if url, _ := cmd.Flags().GetString("database-url"); url != "" {
		return feedback.NewPostgresStoreFromURL(url)
	}
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = config.LoadLiteConfig().FeedbackDBPath()
	}
	return feedback.NewSQLiteStore(path)
}
