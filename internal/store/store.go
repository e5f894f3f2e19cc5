// Package store holds the persistent key-value contract the session engines
// read and write, plus its backends.
//
// Every backend is atomic per Get and per Set call only. A Get followed by a
// Set is not isolated from other writers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/azye/tabdog/pkg/models"
	"pkt.systems/pslog"
)

// Top-level record keys.
const (
	KeySavedTabs       = "savedTabs"
	KeySessionMetadata = "sessionMetadata"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendDuckDB = "duckdb"
	BackendMemory = "memory"
)

// Store is an asynchronous-by-contract key-value store. Missing keys are
// absent from the Get result.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]json.RawMessage) error
	Close() error
}

// Snapshot is the decoded content of both top-level records.
type Snapshot struct {
	Tabs     []models.TabRecord
	Metadata models.SessionMetadata
}

// Open constructs the configured backend.
func Open(ctx context.Context, backend, path string, logger pslog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendFile, "":
		return NewFileWithLogger(path, logger)
	case BackendDuckDB:
		return NewDuckDBWithLogger(ctx, path, logger)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

// Load reads both records with a single Get.
func Load(ctx context.Context, s Store) (Snapshot, error) {
	raw, err := s.Get(ctx, KeySavedTabs, KeySessionMetadata)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if snap.Tabs, err = decodeTabs(raw); err != nil {
		return Snapshot{}, err
	}
	if snap.Metadata, err = decodeMetadata(raw); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LoadTabs reads only the saved tab list.
func LoadTabs(ctx context.Context, s Store) ([]models.TabRecord, error) {
	raw, err := s.Get(ctx, KeySavedTabs)
	if err != nil {
		return nil, err
	}
	return decodeTabs(raw)
}

// LoadMetadata reads only the session names.
func LoadMetadata(ctx context.Context, s Store) (models.SessionMetadata, error) {
	raw, err := s.Get(ctx, KeySessionMetadata)
	if err != nil {
		return nil, err
	}
	return decodeMetadata(raw)
}

// SaveTabs replaces the saved tab list.
func SaveTabs(ctx context.Context, s Store, tabs []models.TabRecord) error {
	data, err := encode(tabs)
	if err != nil {
		return err
	}
	return s.Set(ctx, map[string]json.RawMessage{KeySavedTabs: data})
}

// SaveMetadata replaces the session names.
func SaveMetadata(ctx context.Context, s Store, meta models.SessionMetadata) error {
	data, err := encode(meta)
	if err != nil {
		return err
	}
	return s.Set(ctx, map[string]json.RawMessage{KeySessionMetadata: data})
}

// Save replaces both records with a single Set.
func Save(ctx context.Context, s Store, snap Snapshot) error {
	tabs, err := encode(snap.Tabs)
	if err != nil {
		return err
	}
	meta, err := encode(snap.Metadata)
	if err != nil {
		return err
	}
	return s.Set(ctx, map[string]json.RawMessage{
		KeySavedTabs:       tabs,
		KeySessionMetadata: meta,
	})
}

func decodeTabs(raw map[string]json.RawMessage) ([]models.TabRecord, error) {
	data, ok := raw[KeySavedTabs]
	if !ok || isNull(data) {
		return []models.TabRecord{}, nil
	}
	var tabs []models.TabRecord
	if err := json.Unmarshal(data, &tabs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeySavedTabs, err)
	}
	if tabs == nil {
		tabs = []models.TabRecord{}
	}
	return tabs, nil
}

func decodeMetadata(raw map[string]json.RawMessage) (models.SessionMetadata, error) {
	data, ok := raw[KeySessionMetadata]
	if !ok || isNull(data) {
		return models.SessionMetadata{}, nil
	}
	var meta models.SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeySessionMetadata, err)
	}
	if meta == nil {
		meta = models.SessionMetadata{}
	}
	return meta, nil
}

func encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")
