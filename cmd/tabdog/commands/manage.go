package commands

import (
	"fmt"

	"github.com/azye/tabdog/pkg/models"
	"github.com/spf13/cobra"
)

// parseSession maps a command-line token to a session key; "individual"
// names the tabs saved without a session.
func parseSession(token string) models.SessionKey {
	return models.ParseSessionKey(token)
}

// NewRenameCommand creates the rename command
func NewRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <session> <name>",
		Short: "Name a saved session",
		Long:  `Name a saved session. An empty name removes the custom name.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.Rename(cmd.Context(), parseSession(args[0]), args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session renamed")
			return nil
		},
	}
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a saved session",
		Long: `Delete every tab of a saved session and its name.
Use "individual" for tabs saved without a session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.Delete(cmd.Context(), parseSession(args[0]), promptConfirm(cmd, yes))
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session with %d tabs!\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// NewClearCommand creates the clear command
func NewClearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved tab and session name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.ClearAll(cmd.Context(), promptConfirm(cmd, yes))
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d saved tabs!\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
