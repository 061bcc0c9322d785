package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/TheMichaelB/filedeck/internal/events"
)

// LocalStore writes downloads under a base directory.
type LocalStore struct {
	baseDir          string
	conflictStrategy ConflictStrategy
	logger           *events.Logger

	maxPathLength int
	maxFileSize   int64

	// serializes name reservation so concurrent saves never pick the same path
	mu sync.Mutex
}

// NewLocalStore creates a local file store rooted at baseDir.
func NewLocalStore(baseDir string, logger *events.Logger) (*LocalStore, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &LocalStore{
		baseDir:          absPath,
		conflictStrategy: ConflictRename,
		logger:           logger.WithField("component", "local_store"),
		maxPathLength:    260, // Windows compatibility
		maxFileSize:      100 * 1024 * 1024,
	}, nil
}

// BaseDir returns the absolute store root.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// SetConflictStrategy sets the conflict resolution strategy.
func (s *LocalStore) SetConflictStrategy(strategy ConflictStrategy) {
	s.conflictStrategy = strategy
}

// SetMaxFileSize sets the maximum file size limit.
func (s *LocalStore) SetMaxFileSize(size int64) {
	s.maxFileSize = size
}

// Save streams r to a temp file and renames it into place.
func (s *LocalStore) Save(name string, r io.Reader) (string, error) {
	safePath, err := s.sanitizePath(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(safePath), 0755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(safePath), ".download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		tempFile.Close()
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	limited := &io.LimitedReader{R: r, N: s.maxFileSize + 1}

	written, err := io.Copy(io.MultiWriter(tempFile, hasher), limited)
	if err != nil {
		return "", fmt.Errorf("write stream: %w", err)
	}
	if limited.N <= 0 {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, s.maxFileSize)
	}

	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("sync file: %w", err)
	}
	tempFile.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	target, skip, err := s.resolveConflict(safePath)
	if err != nil {
		return "", err
	}
	if skip {
		return s.relative(safePath), nil
	}

	if err := os.Rename(tempPath, target); err != nil {
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	success = true

	rel := s.relative(target)
	s.logger.WithFields(map[string]interface{}{
		"path": rel,
		"size": written,
		"hash": hex.EncodeToString(hasher.Sum(nil)),
	}).Debug("Download stored")

	return rel, nil
}

// Read retrieves file contents. Symlinks are refused.
func (s *LocalStore) Read(name string) ([]byte, error) {
	safePath, err := s.sanitizePath(name)
	if err != nil {
		return nil, err
	}

	if stat, err := os.Lstat(safePath); err == nil && stat.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: symlinks not allowed: %s", ErrInvalidPath, name)
	}

	data, err := os.ReadFile(safePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Exists checks if a file exists.
func (s *LocalStore) Exists(name string) (bool, error) {
	safePath, err := s.sanitizePath(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(safePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Stat returns file information including a content hash.
func (s *LocalStore) Stat(name string) (FileInfo, error) {
	safePath, err := s.sanitizePath(name)
	if err != nil {
		return FileInfo{}, err
	}

	stat, err := os.Lstat(safePath)
	if os.IsNotExist(err) {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat file: %w", err)
	}

	info := FileInfo{
		Path:    s.relative(safePath),
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
		IsDir:   stat.IsDir(),
	}

	if !info.IsDir {
		if sum, err := hashFile(safePath); err == nil {
			info.SHA256 = sum
		}
	}

	return info, nil
}

// Delete removes a file. Deleting a missing file is not an error.
func (s *LocalStore) Delete(name string) error {
	safePath, err := s.sanitizePath(name)
	if err != nil {
		return err
	}

	s.logger.WithField("path", name).Debug("Deleting file")

	if err := os.Remove(safePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}

	s.cleanEmptyDirs(filepath.Dir(safePath))
	return nil
}

// List returns files in the store root, sorted by name. Temp files are hidden.
func (s *LocalStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".download-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// resolveConflict picks the final path for safePath. Callers hold s.mu.
func (s *LocalStore) resolveConflict(safePath string) (string, bool, error) {
	if _, err := os.Stat(safePath); os.IsNotExist(err) {
		return safePath, false, nil
	}

	switch s.conflictStrategy {
	case ConflictOverwrite:
		return safePath, false, nil
	case ConflictError:
		return "", false, fmt.Errorf("%w: %s", ErrExists, s.relative(safePath))
	case ConflictSkip:
		return "", true, nil
	default:
		return s.generateConflictPath(safePath), false, nil
	}
}

// generateConflictPath returns the first free "name (n).ext".
func (s *LocalStore) generateConflictPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// sanitizePath validates name and resolves it under the base directory.
func (s *LocalStore) sanitizePath(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: contains null bytes", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: escapes base directory", ErrInvalidPath)
	}
	cleaned = strings.TrimPrefix(cleaned, string(filepath.Separator))
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPath)
	}

	fullPath := filepath.Join(s.baseDir, cleaned)
	if !strings.HasPrefix(fullPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: escapes base directory", ErrInvalidPath)
	}

	if len(fullPath) > s.maxPathLength {
		return "", fmt.Errorf("%w: %d characters (max: %d)", ErrInvalidPath, len(fullPath), s.maxPathLength)
	}

	if err := validatePlatformPath(cleaned); err != nil {
		return "", err
	}

	return fullPath, nil
}

func (s *LocalStore) relative(fullPath string) string {
	rel, err := filepath.Rel(s.baseDir, fullPath)
	if err != nil {
		return fullPath
	}
	return filepath.ToSlash(rel)
}

// cleanEmptyDirs removes empty parent directories up to the base.
func (s *LocalStore) cleanEmptyDirs(dirPath string) {
	for dirPath != s.baseDir && strings.HasPrefix(dirPath, s.baseDir) {
		entries, err := os.ReadDir(dirPath)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dirPath); err != nil {
			break
		}
		dirPath = filepath.Dir(dirPath)
	}
}

var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

func validatePlatformPath(path string) error {
	if runtime.GOOS != "windows" {
		return nil
	}

	for _, part := range strings.Split(path, string(filepath.Separator)) {
		base := strings.ToUpper(strings.TrimSuffix(part, filepath.Ext(part)))
		if windowsReserved[base] {
			return fmt.Errorf("%w: reserved name '%s'", ErrInvalidPath, part)
		}
		if i := strings.IndexAny(part, `<>:"|?*`); i >= 0 {
			return fmt.Errorf("%w: contains character '%c'", ErrInvalidPath, part[i])
		}
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var _ Store = (*LocalStore)(nil)
