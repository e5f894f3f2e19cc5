package commands

import (
	"fmt"
	"io"

	"github.com/azye/tabdog/internal/render"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions without the TUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snap.Tabs) == 0 {
				fmt.Fprintln(out, "No saved tabs yet.")
				return nil
			}

			fmt.Fprintf(out, "Saved tabs: %d\n", len(snap.Tabs))
			fmt.Fprintln(out, "===========")
			// The whole list goes to stdout, so drain every batch.
			r := render.New(a.cfg.Render.BatchSize, a.svc.Dates())
			run := r.Render(snap.Tabs, snap.Metadata, func(b render.Batch) {
				printGroups(out, b.Groups)
			})
			for run.Resume() {
			}
			return nil
		},
	}
}

func printGroups(out io.Writer, groups []render.Group) {
	for _, g := range groups {
		if !g.Grouped {
			it := g.Items[0]
			fmt.Fprintf(out, "\n[%s] %s\n   %s\n", g.Key, it.Title, it.URL)
			continue
		}
		fmt.Fprintf(out, "\n[%s] %s\n", g.Key, g.Header())
		for i, it := range g.Items {
			fmt.Fprintf(out, "   %d. %s\n      %s\n", i+1, it.Title, it.URL)
		}
	}
}
