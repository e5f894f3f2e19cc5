package tui

import (
	"context"
	"fmt"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/internal/store"
	"github.com/azye/tabdog/pkg/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for async operations
type (
	// SnapshotLoadedMsg carries a fresh read of the store
	SnapshotLoadedMsg struct {
		Snapshot store.Snapshot
		Error    error
	}

	// ActionDoneMsg reports the outcome of a user action
	ActionDoneMsg struct {
		Notice string
		Error  error
		// Reload asks for a fresh render from the store.
		Reload bool
	}
)

// approve is passed to the service once the view has already asked the user.
func approve(string) bool { return true }

// loadSnapshotCmd reads the store asynchronously
func loadSnapshotCmd(ctx context.Context, svc *sessions.Service) tea.Cmd {
	return func() tea.Msg {
		snap, err := svc.Snapshot(ctx)
		return SnapshotLoadedMsg{Snapshot: snap, Error: err}
	}
}

// captureCmd saves the open tabs selected by mode
func captureCmd(ctx context.Context, svc *sessions.Service, mode sessions.Mode) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Capture(ctx, mode)
		if err != nil {
			return ActionDoneMsg{Error: err, Reload: true}
		}
		return ActionDoneMsg{Notice: fmt.Sprintf("Saved %d tabs successfully!", len(res.Records)), Reload: true}
	}
}

// renameCmd sets or clears a session name
func renameCmd(ctx context.Context, svc *sessions.Service, key models.SessionKey, name string) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Rename(ctx, key, name); err != nil {
			return ActionDoneMsg{Error: err, Reload: true}
		}
		return ActionDoneMsg{Notice: "Session renamed.", Reload: true}
	}
}

// deleteCmd removes a session after the user confirmed
func deleteCmd(ctx context.Context, svc *sessions.Service, key models.SessionKey) tea.Cmd {
	return func() tea.Msg {
		n, err := svc.Delete(ctx, key, approve)
		if err != nil {
			return ActionDoneMsg{Error: err, Reload: true}
		}
		return ActionDoneMsg{Notice: fmt.Sprintf("Deleted session with %d tabs!", n), Reload: true}
	}
}

// clearCmd removes everything after the user confirmed
func clearCmd(ctx context.Context, svc *sessions.Service) tea.Cmd {
	return func() tea.Msg {
		n, err := svc.ClearAll(ctx, approve)
		if err != nil {
			return ActionDoneMsg{Error: err, Reload: true}
		}
		return ActionDoneMsg{Notice: fmt.Sprintf("Cleared %d saved tabs!", n), Reload: true}
	}
}

// restoreCmd opens every tab of a session
func restoreCmd(ctx context.Context, svc *sessions.Service, key models.SessionKey) tea.Cmd {
	return func() tea.Msg {
		n, err := svc.Restore(ctx, key)
		if err != nil {
			return ActionDoneMsg{Error: err}
		}
		return ActionDoneMsg{Notice: fmt.Sprintf("Restored %d tabs!", n)}
	}
}

// openCmd opens a single saved tab
func openCmd(ctx context.Context, svc *sessions.Service, url string) tea.Cmd {
	return func() tea.Msg {
		if err := svc.OpenTab(ctx, url); err != nil {
			return ActionDoneMsg{Error: err}
		}
		return ActionDoneMsg{Notice: "Opened " + url}
	}
}
