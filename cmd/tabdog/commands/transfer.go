package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every saved session to a text backup",
		Long: `Write every saved session to a text backup, newest first.
Each session is a header line (date, plus " - Name" when named), its URLs one per line, and a blank line.
The default file name is <product>_backup_<YYYY-MM-DD>.txt in the current directory; use --out - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.svc.Export(cmd.Context())
			if err != nil {
				return report(cmd, err)
			}
			if out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if out == "" {
				out = sessions.BackupFileName(a.cfg.Export.Product, time.Now())
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or - for stdout")
	return cmd
}

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a text backup into the saved sessions",
		Long: `Merge a text backup into the saved sessions. A block whose header matches an existing
session's date and name adds to that session; URLs already saved there are skipped.
Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			var (
				data []byte
				err  error
			)
			if source == "-" {
				data, err = readAll(cmd)
			} else {
				data, err = os.ReadFile(source)
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", source, err)
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Import(cmd.Context(), filepath.Base(source), data)
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tabs successfully!\n", res.ImportedCount)
			return nil
		},
	}
}
