package commands

import (
	"encoding/json"
	"fmt"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/spf13/cobra"
)

// NewDebugCommand creates the debug-session command
func NewDebugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "debug-session <session>",
		Short: "Show the raw stored records of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runDebugSession,
	}
}

func runDebugSession(cmd *cobra.Command, args []string) error {
	key := parseSession(args[0])
	out := cmd.OutOrStdout()

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "Debugging session: %s\n", key)
	fmt.Fprintln(out, "==========================================")

	snap, err := a.svc.Snapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to debug session: %w", err)
	}
	sess, ok := sessions.Find(snap.Tabs, key)
	if !ok {
		fmt.Fprintln(out, "No records found for this session")
		return nil
	}

	if name, ok := snap.Metadata.Name(key); ok {
		fmt.Fprintf(out, "Name: %s\n", name)
	}
	fmt.Fprintf(out, "Header: %s\n", sessions.Header(sess, snap.Metadata, a.svc.Dates()))
	fmt.Fprintf(out, "Found %d records:\n", len(sess.Tabs))
	for i, tab := range sess.Tabs {
		raw, err := json.MarshalIndent(tab, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n--- Record %d ---\n%s\n", i+1, raw)
	}
	return nil
}
