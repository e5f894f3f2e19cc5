package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/azye/tabdog/internal/browser"
	"github.com/azye/tabdog/internal/config"
	"github.com/azye/tabdog/internal/logx"
	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/internal/store"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

// app is everything a command needs, built from the config file.
type app struct {
	cfg     config.Config
	store   store.Store
	browser *browser.Remote
	svc     *sessions.Service
	log     pslog.Logger
}

func openApp(cmd *cobra.Command, withBrowser bool) (*app, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	dates, err := cfg.DateFormatter()
	if err != nil {
		return nil, err
	}

	log := logx.WithStore(pslog.Ctx(ctx), cfg.Store.Backend, cfg.Store.Path)
	st, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &app{cfg: cfg, store: st, log: log}
	var tabs sessions.TabSource
	if withBrowser {
		a.browser = browser.NewRemote(ctx, cfg.Browser.RemoteURL, cfg.BrowserTimeout(), pslog.Ctx(ctx))
		tabs = a.browser
	}
	a.svc = sessions.NewService(st, tabs, sessions.Options{
		Dates:         dates,
		Exclude:       cfg.Browser.ExcludePrefixes,
		MaxNameLength: cfg.Sessions.MaxNameLength,
	})
	return a, nil
}

func (a *app) Close() {
	a.svc.Close()
	if a.browser != nil {
		a.browser.Shutdown()
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", "err", err)
	}
}

// report prints informational conditions and swallows them; other errors pass through.
func report(cmd *cobra.Command, err error) error {
	if sessions.IsNoOp(err) {
		fmt.Fprintln(cmd.OutOrStdout(), err.Error())
		return nil
	}
	return err
}

// promptConfirm asks on the command's streams unless assumeYes is set.
func promptConfirm(cmd *cobra.Command, assumeYes bool) sessions.Confirm {
	return func(prompt string) bool {
		if assumeYes {
			return true
		}
		return askYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
	}
}

func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}
