package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azye/tabdog/internal/logx"
	"github.com/azye/tabdog/internal/store"
	"github.com/azye/tabdog/pkg/models"
	"pkt.systems/pslog"
)

// DefaultMaxNameLength caps session names.
const DefaultMaxNameLength = 120

// TabSource is the browser: it lists open tabs, closes them and opens new ones.
type TabSource interface {
	List(ctx context.Context) ([]models.LiveTab, error)
	Close(ctx context.Context, ids []string) error
	Open(ctx context.Context, url string) error
}

// Confirm asks the user to approve a destructive action.
type Confirm func(prompt string) bool

// Options tunes a Service.
type Options struct {
	Dates         DateFormatter
	Exclude       []string
	MaxNameLength int
	Now           func() time.Time
}

// Service performs every user action against the store.
type Service struct {
	store store.Store
	tabs  TabSource
	exec  *Executor
	opts  Options
}

// NewService starts a service. tabs may be nil when no browser is reachable;
// browser actions then fail with ErrNoTabSource.
func NewService(st store.Store, tabs TabSource, opts Options) *Service {
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = DefaultMaxNameLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Dates = opts.Dates.withDefaults()
	exec := NewExecutor()
	exec.Start()
	return &Service{store: st, tabs: tabs, exec: exec, opts: opts}
}

// Close stops the executor. The store is owned by the caller.
func (s *Service) Close() {
	s.exec.Close()
	s.exec.Wait()
}

// Dates returns the formatter shared by export, import and rendering.
func (s *Service) Dates() DateFormatter { return s.opts.Dates }

// Snapshot reads the current store contents.
func (s *Service) Snapshot(ctx context.Context) (store.Snapshot, error) {
	snap, err := store.Load(ctx, s.store)
	if err != nil {
		return store.Snapshot{}, storageErr("read", err)
	}
	return snap, nil
}

// Capture saves the open tabs selected by mode as one new session, then
// closes them. Tabs are only closed after the write succeeded.
func (s *Service) Capture(ctx context.Context, mode Mode) (CaptureResult, error) {
	if s.tabs == nil {
		return CaptureResult{}, ErrNoTabSource
	}
	open, err := s.tabs.List(ctx)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to list open tabs: %w", err)
	}
	return s.CaptureTabs(ctx, open, mode.Predicate(s.opts.Exclude))
}

// CaptureTabs is Capture for an already enumerated tab list.
func (s *Service) CaptureTabs(ctx context.Context, open []models.LiveTab, pred Predicate) (CaptureResult, error) {
	res := Capture(open, pred, s.opts.Now())
	if res.Empty() {
		return res, ErrNothingToSave
	}
	ctx = logx.ContextWithSession(ctx, models.ExplicitKey(res.SessionID))

	err := s.exec.Do(ctx, func(ctx context.Context) error {
		saved, err := store.LoadTabs(ctx, s.store)
		if err != nil {
			return storageErr("read", err)
		}
		return storageErr("write", store.SaveTabs(ctx, s.store, Prepend(res.Records, saved)))
	})
	if err != nil {
		return CaptureResult{}, err
	}

	log := pslog.Ctx(ctx)
	log.Info("tabs saved", "tabs", len(res.Records))

	if s.tabs != nil && len(res.TabIDsToClose) > 0 {
		if err := s.tabs.Close(ctx, res.TabIDsToClose); err != nil {
			log.Warn("closing saved tabs failed", "err", err)
			return res, fmt.Errorf("tabs were saved but closing them failed: %w", err)
		}
	}
	return res, nil
}

// Import merges a text export into the store.
func (s *Service) Import(ctx context.Context, source string, data []byte) (ImportResult, error) {
	text, err := DecodePayload(source, data)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	err = s.exec.Do(ctx, func(ctx context.Context) error {
		snap, err := store.Load(ctx, s.store)
		if err != nil {
			return storageErr("read", err)
		}
		res = ImportText(text, snap.Tabs, snap.Metadata, s.opts.Dates, s.opts.Now())
		if res.ImportedCount == 0 {
			return ErrNothingToImport
		}
		return storageErr("write", store.Save(ctx, s.store, store.Snapshot{
			Tabs:     Prepend(res.NewTabs, snap.Tabs),
			Metadata: MergeMetadata(snap.Metadata, res.MetadataUpdates),
		}))
	})
	if err != nil {
		return ImportResult{}, err
	}
	pslog.Ctx(ctx).Info("tabs imported", "imported", res.ImportedCount, "source", source, "named_sessions", len(res.MetadataUpdates))
	return res, nil
}

// Export renders the store in the text format.
func (s *Service) Export(ctx context.Context) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if len(snap.Tabs) == 0 {
		return "", ErrNothingToExport
	}
	return ExportText(snap.Tabs, snap.Metadata, s.opts.Dates), nil
}

// Rename sets a session's display name. An empty name removes it.
func (s *Service) Rename(ctx context.Context, key models.SessionKey, name string) error {
	if key.IsLegacy() {
		return ErrLegacyRename
	}
	ctx = logx.ContextWithSession(ctx, key)
	name = s.cleanName(name)

	err := s.exec.Do(ctx, func(ctx context.Context) error {
		snap, err := store.Load(ctx, s.store)
		if err != nil {
			return storageErr("read", err)
		}
		if _, ok := Find(snap.Tabs, key); !ok {
			return ErrSessionNotFound
		}
		meta := snap.Metadata.Clone()
		if name == "" {
			delete(meta, key.ID())
		} else {
			meta[key.ID()] = name
		}
		return storageErr("write", store.SaveMetadata(ctx, s.store, meta))
	})
	if err != nil {
		return err
	}
	pslog.Ctx(ctx).Info("session renamed", "name", name)
	return nil
}

// cleanName folds all whitespace runs, newlines included, into single spaces
// so a name always stays on its export header line.
func (s *Service) cleanName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	runes := []rune(name)
	if len(runes) > s.opts.MaxNameLength {
		name = strings.TrimSpace(string(runes[:s.opts.MaxNameLength]))
	}
	return name
}

// DeletePrompt is the confirmation text for deleting a session.
func DeletePrompt(key models.SessionKey, tabs int) string {
	return fmt.Sprintf("Delete session %s with %d tabs? This action cannot be undone.", key, tabs)
}

// ClearPrompt is the confirmation text for clearing the store.
func ClearPrompt(tabs int) string {
	return fmt.Sprintf("Are you sure you want to clear all %d saved tabs? This action cannot be undone.", tabs)
}

// Delete removes every record of a session and its name. The legacy group
// removes exactly the records saved without a session id.
func (s *Service) Delete(ctx context.Context, key models.SessionKey, confirm Confirm) (int, error) {
	ctx = logx.ContextWithSession(ctx, key)
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	sess, ok := Find(snap.Tabs, key)
	if !ok {
		return 0, ErrSessionNotFound
	}
	if confirm == nil || !confirm(DeletePrompt(key, len(sess.Tabs))) {
		return 0, ErrNotConfirmed
	}

	var deleted int
	err = s.exec.Do(ctx, func(ctx context.Context) error {
		snap, err := store.Load(ctx, s.store)
		if err != nil {
			return storageErr("read", err)
		}
		var kept []models.TabRecord
		kept, deleted = Without(snap.Tabs, key)
		if deleted == 0 {
			return ErrSessionNotFound
		}
		meta := snap.Metadata.Clone()
		if !key.IsLegacy() {
			delete(meta, key.ID())
		}
		return storageErr("write", store.Save(ctx, s.store, store.Snapshot{Tabs: kept, Metadata: meta}))
	})
	if err != nil {
		return 0, err
	}
	pslog.Ctx(ctx).Info("session deleted", "tabs", deleted)
	return deleted, nil
}

// ClearAll removes every saved record and every session name.
func (s *Service) ClearAll(ctx context.Context, confirm Confirm) (int, error) {
	tabs, err := store.LoadTabs(ctx, s.store)
	if err != nil {
		return 0, storageErr("read", err)
	}
	if len(tabs) == 0 {
		return 0, ErrNothingToClear
	}
	if confirm == nil || !confirm(ClearPrompt(len(tabs))) {
		return 0, ErrNotConfirmed
	}

	var cleared int
	err = s.exec.Do(ctx, func(ctx context.Context) error {
		current, err := store.LoadTabs(ctx, s.store)
		if err != nil {
			return storageErr("read", err)
		}
		cleared = len(current)
		return storageErr("write", store.Save(ctx, s.store, store.Snapshot{
			Tabs:     []models.TabRecord{},
			Metadata: models.SessionMetadata{},
		}))
	})
	if err != nil {
		return 0, err
	}
	pslog.Ctx(ctx).Info("saved tabs cleared", "tabs", cleared)
	return cleared, nil
}

// Restore opens every tab of a session in stored order. Records are kept.
func (s *Service) Restore(ctx context.Context, key models.SessionKey) (int, error) {
	if s.tabs == nil {
		return 0, ErrNoTabSource
	}
	ctx = logx.ContextWithSession(ctx, key)
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	sess, ok := Find(snap.Tabs, key)
	if !ok {
		return 0, ErrSessionNotFound
	}
	for i, tab := range sess.Tabs {
		if err := s.tabs.Open(ctx, tab.URL); err != nil {
			return i, fmt.Errorf("failed to open %s: %w", tab.URL, err)
		}
	}
	pslog.Ctx(ctx).Info("session restored", "tabs", len(sess.Tabs))
	return len(sess.Tabs), nil
}

// OpenTab opens a single saved URL.
func (s *Service) OpenTab(ctx context.Context, url string) error {
	if s.tabs == nil {
		return ErrNoTabSource
	}
	return s.tabs.Open(ctx, url)
}
