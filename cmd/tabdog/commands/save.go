package commands

import (
	"fmt"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/spf13/cobra"
)

// NewSaveCommand creates the save command
func NewSaveCommand() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save open browser tabs as a new session and close them",
		Long: `Save open browser tabs as one new session, then close them.
Modes: all (every tab), others (every tab except the active one), current (only the active tab).
Tabs are closed only after the session has been written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := sessions.ParseMode(mode)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Capture(cmd.Context(), m)
			if err != nil && res.Empty() {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tabs as session %s\n", len(res.Records), res.SessionID)
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(sessions.ModeAll), "which tabs to save: all, others or current")
	return cmd
}

// NewRestoreCommand creates the restore command
func NewRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <session>",
		Short: "Open every tab of a saved session",
		Long: `Open every tab of a saved session in its original order. The session stays saved.
Use "individual" for tabs saved without a session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.Restore(cmd.Context(), parseSession(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d tabs!\n", n)
			return nil
		},
	}
}
