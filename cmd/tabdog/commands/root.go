package commands

import (
	"github.com/azye/tabdog/internal/tui"
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabdog",
		Short: "Save, restore and manage browser tab sessions",
		Long: `tabdog saves the open tabs of a Chromium browser as timestamped sessions,
closes them, and later restores, renames, exports or re-imports them.
Without a subcommand it opens the management view.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $XDG_CONFIG_HOME/tabdog/config.yaml)")
	rootCmd.AddCommand(NewSaveCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewRenameCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewClearCommand())
	rootCmd.AddCommand(NewRestoreCommand())
	rootCmd.AddCommand(NewDebugCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(cmd.Context(), a.svc, tui.Options{
		BatchSize:     a.cfg.Render.BatchSize,
		MaxNameLength: a.cfg.Sessions.MaxNameLength,
	})
}
