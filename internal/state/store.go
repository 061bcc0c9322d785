package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// Store persists navigation sessions between runs, keyed by profile.
type Store interface {
	// Load retrieves the session for a profile.
	Load(profile string) (*models.Session, error)

	// Save persists the session for a profile.
	Save(profile string, session *models.Session) error

	// Reset removes the session for a profile.
	Reset(profile string) error

	// List returns all profiles with a saved session.
	List() ([]string, error)

	// Migrate copies every session into target.
	Migrate(target Store) error

	// Close releases resources.
	Close() error
}

// Errors
var (
	ErrStateNotFound  = errors.New("state not found")
	ErrStateCorrupt   = errors.New("state file is corrupt")
	ErrInvalidProfile = errors.New("invalid profile name")
)

// Record wraps a session with store metadata.
type Record struct {
	Session *models.Session `json:"session"`

	SchemaVersion int       `json:"schema_version"`
	SavedAt       time.Time `json:"saved_at"`
	Checksum      string    `json:"checksum,omitempty"`
}

// CurrentSchemaVersion for migrations.
const CurrentSchemaVersion = 1

// DefaultProfile is used when no profile is named.
const DefaultProfile = "default"

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidateProfile rejects names that are unsafe as file names or keys.
func ValidateProfile(profile string) error {
	if !profilePattern.MatchString(profile) {
		return fmt.Errorf("%w: %q", ErrInvalidProfile, profile)
	}
	return nil
}

// Open creates the store selected by backend ("json", "sqlite" or "memory")
// under dir.
func Open(backend, dir string, logger *events.Logger) (Store, error) {
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "", "json":
		store, err := NewJSONStore(dir, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
		store, err := NewSQLiteStore(filepath.Join(dir, "sessions.db"), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
