package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/pslog"
)

// File keeps every record in one JSON object on disk. Writes go through a
// temp file and a rename so a crash never leaves a half-written object.
type File struct {
	mu   sync.Mutex
	path string
	log  pslog.Logger
}

// NewFile constructs a file store at path.
func NewFile(path string) (*File, error) {
	return NewFileWithLogger(path, nil)
}

// NewFileWithLogger constructs a file store with logging.
func NewFileWithLogger(path string, logger pslog.Logger) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("store", BackendFile, "store_path", path)
	}
	return &File{path: path, log: logger}, nil
}

// Get reads the requested keys from disk.
func (f *File) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if v, ok := all[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

// Set merges values into the object on disk and rewrites it.
func (f *File) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return err
	}
	for key, v := range values {
		all[key] = v
	}
	if err := f.write(all); err != nil {
		if f.log != nil {
			f.log.Warn("store save failed", "err", err)
		}
		return err
	}
	if f.log != nil {
		f.log.Trace("store save ok", "keys", len(values))
	}
	return nil
}

// Close is a no-op; every call opens and closes the file itself.
func (f *File) Close() error { return nil }

func (f *File) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if f.log != nil {
				f.log.Debug("store load miss")
			}
			return map[string]json.RawMessage{}, nil
		}
		if f.log != nil {
			f.log.Warn("store load failed", "err", err)
		}
		return nil, err
	}
	all := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		if f.log != nil {
			f.log.Warn("store load failed", "err", err)
		}
		return nil, err
	}
	if f.log != nil {
		f.log.Debug("store load ok", "keys", len(all))
	}
	return all, nil
}

func (f *File) write(all map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "tabdog-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
