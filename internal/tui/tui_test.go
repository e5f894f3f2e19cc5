package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/internal/store"
	"github.com/azye/tabdog/pkg/models"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, tabs []models.TabRecord, meta models.SessionMetadata) (model, *store.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	if err := store.Save(ctx, mem, store.Snapshot{Tabs: tabs, Metadata: meta}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	svc := sessions.NewService(mem, nil, sessions.Options{Dates: sessions.NewDateFormatter("", time.UTC)})
	t.Cleanup(svc.Close)

	m := initialModel(ctx, svc, 20, 120)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(model)

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	updated, _ = m.Update(SnapshotLoadedMsg{Snapshot: snap})
	return updated.(model), mem
}

func sessionsOfTwo(n int) []models.TabRecord {
	var tabs []models.TabRecord
	for i := 0; i < n; i++ {
		id := models.SessionID(fmt.Sprintf("%d", 1700000000000+i))
		tabs = append(tabs,
			models.TabRecord{Title: "first", URL: fmt.Sprintf("https://s%d.example/1", i), SessionID: id},
			models.TabRecord{Title: "second", URL: fmt.Sprintf("https://s%d.example/2", i), SessionID: id},
		)
	}
	return tabs
}

func press(m model, key string) model {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, _ := m.Update(msg)
	return updated.(model)
}

// TestInitialRenderIsOneBatch tests that only the first batch is rendered
func TestInitialRenderIsOneBatch(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(30), nil)

	if m.total != 60 {
		t.Errorf("Expected 60 saved tabs, got %d", m.total)
	}
	if len(m.groups) != 20 {
		t.Errorf("Expected 20 rendered sessions, got %d", len(m.groups))
	}
	if len(m.rows) != 60 {
		t.Errorf("Expected 60 rows (header + 2 tabs each), got %d", len(m.rows))
	}
	if !m.run.Pending() {
		t.Error("Expected a pending continuation")
	}
	if !strings.Contains(m.View(), "TabDog - 60 saved tabs") {
		t.Error("Header should show the saved tab count")
	}
}

// TestScrollNearEndLoadsNextBatch tests the proximity trigger
func TestScrollNearEndLoadsNextBatch(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(30), nil)

	for i := 0; i < 50; i++ {
		m = press(m, "j")
	}
	if len(m.groups) != 20 {
		t.Fatalf("Next batch should not load yet, got %d sessions", len(m.groups))
	}

	for i := 0; i < 5; i++ {
		m = press(m, "j")
	}
	if len(m.groups) != 30 {
		t.Errorf("Expected all 30 sessions after scrolling near the end, got %d", len(m.groups))
	}
	if m.run.Pending() {
		t.Error("No continuation should remain")
	}
	if m.cursor != 55 {
		t.Errorf("Expected cursor at 55, got %d", m.cursor)
	}
}

// TestTallWindowFillsViewport tests that batches load while the rows do not fill the screen
func TestTallWindowFillsViewport(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(60), nil)
	if len(m.groups) != 20 {
		t.Fatalf("Expected 20 sessions in a 40 line window, got %d", len(m.groups))
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 100})
	m = updated.(model)
	if len(m.groups) != 40 {
		t.Errorf("Expected 40 sessions once the window grows, got %d", len(m.groups))
	}
	if len(m.rows) < m.viewport.Height {
		t.Errorf("Rows (%d) should fill the viewport (%d)", len(m.rows), m.viewport.Height)
	}
	if !m.run.Pending() {
		t.Error("The last batch should still wait for scrolling")
	}
	if m.cursor != 0 {
		t.Errorf("Cursor should not move, got %d", m.cursor)
	}
}

// TestReloadReplacesPreviousRender tests that a fresh snapshot invalidates the old run
func TestReloadReplacesPreviousRender(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(30), nil)
	old := m.run

	updated, _ := m.Update(SnapshotLoadedMsg{Snapshot: store.Snapshot{Tabs: sessionsOfTwo(2)}})
	m = updated.(model)

	if old.Pending() {
		t.Error("Previous run should be cancelled")
	}
	if len(m.groups) != 2 || len(m.rows) != 6 {
		t.Errorf("Expected 2 sessions in 6 rows, got %d and %d", len(m.groups), len(m.rows))
	}
}

// TestEmptyState tests the empty store view
func TestEmptyState(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	if !strings.Contains(m.View(), emptyState) {
		t.Error("Empty state text should be shown")
	}

	m = press(m, "x")
	if m.mode != browseView {
		t.Error("Clearing an empty store should not ask for confirmation")
	}
	if m.notice != sessions.ErrNothingToClear.Error() {
		t.Errorf("Unexpected notice %q", m.notice)
	}
}

// TestDeleteDeclined tests answering no to the delete prompt
func TestDeleteDeclined(t *testing.T) {
	m, mem := newTestModel(t, sessionsOfTwo(1), nil)
	writes := mem.Writes()

	m = press(m, "d")
	if m.mode != confirmView {
		t.Fatal("Delete should ask for confirmation")
	}
	if !strings.Contains(m.confirm.prompt, "2 tabs") {
		t.Errorf("Prompt should state the tab count, got %q", m.confirm.prompt)
	}

	m = press(m, "n")
	if m.mode != browseView {
		t.Error("Should return to browsing")
	}
	if m.notice != "Cancelled." {
		t.Errorf("Unexpected notice %q", m.notice)
	}
	if mem.Writes() != writes {
		t.Error("Declined delete must not write")
	}
}

// TestDeleteConfirmed tests the delete action and its reload
func TestDeleteConfirmed(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(2), nil)

	m = press(m, "d")
	run := m.confirm.run
	m = press(m, "y")
	if m.mode != browseView || !m.busy.active {
		t.Fatal("Confirming should start the action")
	}

	done, ok := run().(ActionDoneMsg)
	if !ok {
		t.Fatal("Expected ActionDoneMsg")
	}
	if done.Error != nil || done.Notice != "Deleted session with 2 tabs!" || !done.Reload {
		t.Fatalf("Unexpected result %+v", done)
	}

	updated, cmd := m.Update(done)
	m = updated.(model)
	if cmd == nil {
		t.Error("A mutation should trigger a reload")
	}
	if m.notice != "Deleted session with 2 tabs!" {
		t.Errorf("Unexpected notice %q", m.notice)
	}

	snap, err := m.svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Tabs) != 2 {
		t.Errorf("Expected 2 remaining tabs, got %d", len(snap.Tabs))
	}
}

// TestNoOpNotice tests that informational conditions are not shown as errors
func TestNoOpNotice(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(1), nil)

	updated, _ := m.Update(ActionDoneMsg{Error: sessions.ErrNothingToSave})
	m = updated.(model)
	if m.notice != "No tabs to save!" {
		t.Errorf("Unexpected notice %q", m.notice)
	}

	updated, _ = m.Update(ActionDoneMsg{Error: &sessions.StorageError{Op: "write", Err: fmt.Errorf("disk full")}, Reload: true})
	m = updated.(model)
	if !strings.HasPrefix(m.notice, "Error: ") {
		t.Errorf("Storage failures should be shown as errors, got %q", m.notice)
	}
}

// TestRenameFlow tests entering and leaving rename mode
func TestRenameFlow(t *testing.T) {
	tabs := sessionsOfTwo(1)
	m, _ := newTestModel(t, tabs, models.SessionMetadata{tabs[0].SessionID: "Work"})

	m = press(m, "r")
	if m.mode != renameView {
		t.Fatal("Expected rename mode")
	}
	if m.input.Value() != "Work" {
		t.Errorf("Input should start with the current name, got %q", m.input.Value())
	}
	if m.input.CharLimit != 120 {
		t.Errorf("Expected name limit 120, got %d", m.input.CharLimit)
	}

	m = press(m, "esc")
	if m.mode != browseView {
		t.Error("Esc should cancel renaming")
	}
}

// TestRenameLegacyRejected tests that the legacy group cannot be renamed
func TestRenameLegacyRejected(t *testing.T) {
	m, _ := newTestModel(t, []models.TabRecord{{Title: "Old", URL: "https://old.example"}}, nil)

	m = press(m, "r")
	if m.mode != browseView {
		t.Error("Legacy rows should not enter rename mode")
	}
	if !strings.Contains(m.notice, sessions.ErrLegacyRename.Error()) {
		t.Errorf("Unexpected notice %q", m.notice)
	}
}

// TestViewportInitialization tests viewport setup
func TestViewportInitialization(t *testing.T) {
	m, _ := newTestModel(t, sessionsOfTwo(1), nil)

	if !m.ready {
		t.Error("Model should be ready after window size message")
	}
	if m.viewport.Width != 120 || m.viewport.Height != 36 {
		t.Errorf("Unexpected viewport size %dx%d", m.viewport.Width, m.viewport.Height)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo world", 5); got != "héllo..." {
		t.Errorf("Unexpected truncation %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Unexpected truncation %q", got)
	}
}
