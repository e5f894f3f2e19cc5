package sessions

import (
	"errors"
	"fmt"
)

// ErrNoOp marks conditions that are reported as notices, not failures.
var ErrNoOp = errors.New("nothing to do")

var (
	// ErrNothingToSave indicates no open tab matched the capture mode.
	ErrNothingToSave = noOp("No tabs to save!")
	// ErrNothingToImport indicates the payload held no new URLs.
	ErrNothingToImport = noOp("No new tabs found to import.")
	// ErrNothingToClear indicates the store holds no saved tabs.
	ErrNothingToClear = noOp("No saved tabs to clear!")
	// ErrNothingToExport indicates the store holds no saved tabs.
	ErrNothingToExport = noOp("No tabs to download!")
	// ErrNotConfirmed indicates the user declined a destructive action.
	ErrNotConfirmed = noOp("Cancelled.")
)

var (
	// ErrSessionNotFound indicates no saved tab belongs to the requested session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrLegacyRename indicates an attempt to name the legacy group.
	ErrLegacyRename = errors.New("tabs saved without a session cannot be renamed")
	// ErrNoTabSource indicates a browser action was requested without a tab source.
	ErrNoTabSource = errors.New("no browser connection configured")
)

type noOpError struct {
	msg string
}

func noOp(msg string) error { return &noOpError{msg: msg} }

func (e *noOpError) Error() string { return e.msg }

func (e *noOpError) Is(target error) bool { return target == ErrNoOp }

// IsNoOp reports whether err is an informational condition.
func IsNoOp(err error) bool { return errors.Is(err, ErrNoOp) }

// ParseError is returned when an import payload cannot be read as text.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("Error importing tabs: %v", e.Err)
	}
	return fmt.Sprintf("Error importing tabs from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps a failed store call. Nothing in memory was changed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
