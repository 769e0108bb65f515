package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cds-scoring-engine/internal/setup"
)

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register mcp-server-lite with a desktop MCP client",
	}
	cmd.PersistentFlags().String("config", "", "Client config file (default: the desktop client's path for this OS)")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Add or update the server entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clientConfigPath(cmd)
			if err != nil {
				return err
			}
			binary, _ := cmd.Flags().GetString("binary")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			logLevel, _ := cmd.Flags().GetString("server-log-level")

			entry, err := setup.Register(path, setup.Options{BinaryPath: binary, DataDir: dataDir, LogLevel: logLevel})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "registered %s -> %s in %s\n", setup.ServerName, entry.Command, path)
			return err
		},
	}
	registerCmd.Flags().String("binary", "", "Path to the mcp-server-lite binary (required)")
	registerCmd.Flags().String("data-dir", "", "Data directory passed as CDS_DATA_DIR")
	registerCmd.Flags().String("server-log-level", "", "Log level passed as CDS_LOG_LEVEL")
	_ = registerCmd.MarkFlagRequired("binary")

	unregisterCmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove the server entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clientConfigPath(cmd)
			if err != nil {
				return err
			}
			removed, err := setup.Unregister(path)
			if err != nil {
				return err
			}
			if !removed {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "not registered")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", setup.ServerName, path)
			return err
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the registration and any problems with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clientConfigPath(cmd)
			if err != nil {
				return err
			}
			status, err := setup.GetStatus(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:     %s\n", status.ConfigPath)
			fmt.Fprintf(out, "registered: %t\n", status.Registered)
			if status.Registered {
				fmt.Fprintf(out, "command:    %s\n", status.Command)
				if status.DataDir != "" {
					fmt.Fprintf(out, "data dir:   %s\n", status.DataDir)
				}
			}
			for _, issue := range status.Issues {
				fmt.Fprintf(out, "issue:      %s\n", issue)
			}
			return nil
		},
	}

	cmd.AddCommand(registerCmd, unregisterCmd, statusCmd)
	return cmd
}

func clientConfigPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	path, err := setup.DefaultClientConfigPath()
	if err != nil {
		return "", fmt.Errorf("%w (pass --config)", err)
	}
	if _, err := os.Stat(path); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	return path, nil
}
