package storage

import (
	"errors"
	"io"
	"time"
)

// Store keeps downloaded file content on local disk.
type Store interface {
	// Save streams r into name and returns the path actually written, which
	// differs from name when the conflict strategy renames.
	Save(name string, r io.Reader) (string, error)

	// Read retrieves file contents.
	Read(name string) ([]byte, error)

	// Exists checks if a file exists.
	Exists(name string) (bool, error)

	// Stat returns file information.
	Stat(name string) (FileInfo, error)

	// Delete removes a file.
	Delete(name string) error

	// List returns the files in the store root.
	List() ([]FileInfo, error)

	// BaseDir returns the absolute directory names resolve under.
	BaseDir() string
}

// FileInfo contains file metadata.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	SHA256  string
}

// ConflictStrategy defines how to handle an existing file with the same name.
type ConflictStrategy int

const (
	// ConflictRename writes to "name (n).ext".
	ConflictRename ConflictStrategy = iota

	// ConflictOverwrite replaces existing files.
	ConflictOverwrite

	// ConflictError returns ErrExists.
	ConflictError

	// ConflictSkip keeps the existing file and discards the new content.
	ConflictSkip
)

// ParseConflictStrategy maps a config value onto a strategy.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch s {
	case "", "rename":
		return ConflictRename, nil
	case "overwrite":
		return ConflictOverwrite, nil
	case "error":
		return ConflictError, nil
	case "skip":
		return ConflictSkip, nil
	default:
		return ConflictRename, errors.New("unknown conflict strategy: " + s)
	}
}

// Errors
var (
	ErrExists      = errors.New("file already exists")
	ErrNotFound    = errors.New("file not found")
	ErrTooLarge    = errors.New("file too large")
	ErrInvalidPath = errors.New("invalid path")
)
