package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// SQLiteStore keeps sessions in a SQLite database. The trail is stored one
// row per breadcrumb entry.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore creates a SQLite state store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_state_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        profile TEXT PRIMARY KEY,
        location TEXT NOT NULL,
        search_query TEXT,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS trail_entries (
        profile TEXT NOT NULL,
        position INTEGER NOT NULL,
        entry_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        location TEXT NOT NULL,
        PRIMARY KEY (profile, position),
        FOREIGN KEY (profile) REFERENCES sessions(profile) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	return nil
}

// Load retrieves the session for profile.
func (s *SQLiteStore) Load(profile string) (*models.Session, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	s.logger.WithField("profile", profile).Debug("Loading session from SQLite")

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		session   models.Session
		locJSON   string
		query     sql.NullString
		updatedAt sql.NullTime
	)

	err = tx.QueryRow(`
        SELECT location, search_query, updated_at
        FROM sessions
        WHERE profile = ?
    `, profile).Scan(&locJSON, &query, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	if err := json.Unmarshal([]byte(locJSON), &session.Location); err != nil {
		return nil, fmt.Errorf("%w: location: %v", ErrStateCorrupt, err)
	}
	session.SearchQuery = query.String
	if updatedAt.Valid {
		session.UpdatedAt = updatedAt.Time
	}

	rows, err := tx.Query(`
        SELECT entry_id, name, location
        FROM trail_entries
        WHERE profile = ?
        ORDER BY position
    `, profile)
	if err != nil {
		return nil, fmt.Errorf("query trail: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry    models.BreadcrumbEntry
			entryLoc string
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &entryLoc); err != nil {
			return nil, fmt.Errorf("scan trail row: %w", err)
		}
		if err := json.Unmarshal([]byte(entryLoc), &entry.Location); err != nil {
			return nil, fmt.Errorf("%w: trail location: %v", ErrStateCorrupt, err)
		}
		session.Trail = append(session.Trail, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trail: %w", err)
	}

	return &session, nil
}

// Save persists the session for profile, replacing its trail.
func (s *SQLiteStore) Save(profile string, session *models.Session) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"profile":  profile,
		"location": session.Location.String(),
		"depth":    len(session.Trail),
	}).Debug("Saving session to SQLite")

	locJSON, err := json.Marshal(session.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}

	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
        INSERT INTO sessions (profile, location, search_query, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(profile) DO UPDATE SET
            location = excluded.location,
            search_query = excluded.search_query,
            updated_at = excluded.updated_at
    `, profile, string(locJSON), session.SearchQuery, updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM trail_entries WHERE profile = ?", profile); err != nil {
		return fmt.Errorf("delete old trail: %w", err)
	}

	stmt, err := tx.Prepare(`
        INSERT INTO trail_entries (profile, position, entry_id, name, location)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, entry := range session.Trail {
		entryLoc, err := json.Marshal(entry.Location)
		if err != nil {
			return fmt.Errorf("marshal trail location: %w", err)
		}
		if _, err := stmt.Exec(profile, i, entry.ID, entry.Name, string(entryLoc)); err != nil {
			return fmt.Errorf("insert trail entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Reset removes the session for profile.
func (s *SQLiteStore) Reset(profile string) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	s.logger.WithField("profile", profile).Info("Resetting session in SQLite")

	if _, err := s.db.Exec("DELETE FROM sessions WHERE profile = ?", profile); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns all profiles.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT profile FROM sessions ORDER BY profile")
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Migrate copies all sessions to another store.
func (s *SQLiteStore) Migrate(target Store) error {
	return migrate(s, target, s.logger)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
