package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akyairhashvil/okrcap/internal/database"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every node and capacity setting as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			format, err := database.ParseFormat(mustString(cmd.Flags(), "format"))
			if err != nil {
				return err
			}
			data, err := env.db.Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			path := mustString(cmd.Flags(), "out")
			if path == "" || path == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringP("format", "f", "json", "json or yaml")
	cmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Load a snapshot written by export",
		Long: `Load a snapshot written by export. Rows in the snapshot replace rows with
the same id; rows absent from it are kept. The format follows the file
extension unless --format is given.`,
		Args: cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			format, err := database.ParseFormat(importFormat(mustString(cmd.Flags(), "format"), args[0]))
			if err != nil {
				return err
			}
			summary, err := env.db.Import(cmd.Context(), data, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d nodes and %d capacity settings\n", summary.Nodes, summary.Capacity)
			return nil
		}),
	}
	cmd.Flags().StringP("format", "f", "", "json or yaml (default from extension)")
	return cmd
}

func importFormat(flag, path string) string {
	if flag != "" {
		return flag
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
