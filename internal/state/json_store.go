package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// JSONStore keeps one JSON file per profile.
type JSONStore struct {
	baseDir string
	logger  *events.Logger

	mu sync.RWMutex
}

// NewJSONStore creates a JSON-based state store.
func NewJSONStore(baseDir string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &JSONStore{
		baseDir: baseDir,
		logger:  logger.WithField("component", "json_state_store"),
	}, nil
}

// Load reads the session for profile, falling back to the backup copy when
// the main file is corrupt.
func (s *JSONStore) Load(profile string) (*models.Session, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.statePath(profile)

	s.logger.WithFields(map[string]interface{}{
		"profile": profile,
		"path":    path,
	}).Debug("Loading session")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	session, err := decodeRecord(data)
	if err != nil {
		s.logger.WithError(err).Warn("Session file unreadable, trying backup")
		if backup, berr := s.loadBackup(profile); berr == nil {
			return backup, nil
		}
		return nil, ErrStateCorrupt
	}

	return session, nil
}

// Save writes the session atomically, keeping the previous file as backup.
func (s *JSONStore) Save(profile string, session *models.Session) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.statePath(profile)

	s.logger.WithFields(map[string]interface{}{
		"profile":  profile,
		"location": session.Location.String(),
		"depth":    len(session.Trail),
	}).Debug("Saving session")

	data, err := encodeRecord(session)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".backup"); err != nil {
			s.logger.WithError(err).Warn("Failed to create backup")
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// Reset removes the session and its backup.
func (s *JSONStore) Reset(profile string) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithField("profile", profile).Info("Resetting session")

	path := s.statePath(profile)
	_ = os.Remove(path)
	_ = os.Remove(path + ".backup")
	return nil
}

// List returns all profiles with a session file.
func (s *JSONStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read state directory: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			profiles = append(profiles, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(profiles)
	return profiles, nil
}

// Migrate copies all sessions to another store.
func (s *JSONStore) Migrate(target Store) error {
	return migrate(s, target, s.logger)
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) statePath(profile string) string {
	return filepath.Join(s.baseDir, profile+".json")
}

func (s *JSONStore) loadBackup(profile string) (*models.Session, error) {
	data, err := os.ReadFile(s.statePath(profile) + ".backup")
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// encodeRecord marshals a session with a checksum over the record without it.
func encodeRecord(session *models.Session) ([]byte, error) {
	record := Record{
		Session:       session,
		SchemaVersion: CurrentSchemaVersion,
		SavedAt:       time.Now().UTC(),
	}

	sum, err := checksum(record)
	if err != nil {
		return nil, err
	}
	record.Checksum = sum

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*models.Session, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	if record.Session == nil {
		return nil, ErrStateCorrupt
	}

	if record.Checksum != "" {
		want := record.Checksum
		record.Checksum = ""
		got, err := checksum(record)
		if err != nil || got != want {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrStateCorrupt)
		}
	}

	return record.Session, nil
}

func checksum(record Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal state for checksum: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func migrate(source, target Store, logger *events.Logger) error {
	profiles, err := source.List()
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	logger.WithField("count", len(profiles)).Info("Migrating sessions")

	for _, profile := range profiles {
		session, err := source.Load(profile)
		if err != nil {
			logger.WithError(err).WithField("profile", profile).Error("Failed to load session")
			continue
		}
		if err := target.Save(profile, session); err != nil {
			return fmt.Errorf("save profile %s: %w", profile, err)
		}
	}
	return nil
}
