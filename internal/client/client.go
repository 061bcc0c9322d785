package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/TheMichaelB/filedeck/internal/config"
	"github.com/TheMichaelB/filedeck/internal/dragdrop"
	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
	"github.com/TheMichaelB/filedeck/internal/mutation"
	"github.com/TheMichaelB/filedeck/internal/navigation"
	"github.com/TheMichaelB/filedeck/internal/services/filesystem"
	"github.com/TheMichaelB/filedeck/internal/state"
	"github.com/TheMichaelB/filedeck/internal/storage"
	"github.com/TheMichaelB/filedeck/internal/transport"
)

// ErrChangesNotConfigured is returned by WatchChanges without a feed URL.
var ErrChangesNotConfigured = errors.New("change feed url is not configured")

// Session provides the high-level API for browsing and editing the remote
// file tree. Navigation intents block until their listing resolves.
type Session struct {
	Navigator *navigation.Navigator
	Mutations *mutation.Coordinator
	Drag      *dragdrop.Protocol
	Notices   *events.Broadcaster

	config    *config.Config
	logger    *events.Logger
	transport transport.Transport
	files     *filesystem.Service
	store     state.Store
	downloads storage.Store
}

// New creates a session positioned at Root. No request is made until the
// first intent or RestoreSession.
func New(cfg *config.Config, logger *events.Logger) (*Session, error) {
	transportClient := transport.NewTransport(&cfg.API, logger)
	files := filesystem.NewService(transportClient, logger)
	notices := events.NewBroadcaster()

	nav := navigation.New(files, navigation.Options{
		RequestTimeout: cfg.Navigation.RequestTimeout,
		Notifier:       notices,
		Logger:         logger,
	})

	mutations := mutation.New(files, nav, mutation.Options{
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxFileSize:          cfg.Upload.MaxFileSize,
		Notifier:             notices,
		Logger:               logger,
	})

	stateStore, err := state.Open(cfg.Storage.StateBackend, cfg.Storage.StateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	downloads, err := storage.NewLocalStore(cfg.Storage.DownloadDir, logger)
	if err != nil {
		stateStore.Close()
		return nil, fmt.Errorf("open download store: %w", err)
	}
	strategy, err := storage.ParseConflictStrategy(cfg.Storage.OnConflict)
	if err != nil {
		stateStore.Close()
		return nil, err
	}
	downloads.SetConflictStrategy(strategy)
	downloads.SetMaxFileSize(cfg.Storage.MaxDownloadSize)

	return &Session{
		Navigator: nav,
		Mutations: mutations,
		Drag:      dragdrop.New(),
		Notices:   notices,
		config:    cfg,
		logger:    logger.WithField("component", "session"),
		transport: transportClient,
		files:     files,
		store:     stateStore,
		downloads: downloads,
	}, nil
}

// State returns a copy of the navigation state.
func (s *Session) State() models.NavigationState {
	return s.Navigator.Snapshot()
}

// DownloadDir returns the absolute directory downloads are written to.
func (s *Session) DownloadDir() string {
	return s.downloads.BaseDir()
}

// Close releases the state store and any open change feed.
func (s *Session) Close() error {
	var errs []error
	if err := s.transport.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// wait blocks on load. When a newer navigation replaces it, wait follows the
// newer request so the caller returns once the visible listing has settled.
func (s *Session) wait(ctx context.Context, load *navigation.Load) error {
	for {
		err := load.Wait(ctx)
		if !errors.Is(err, navigation.ErrSuperseded) {
			return err
		}
		next := s.Navigator.Current()
		if next == nil || next == load {
			return nil
		}
		load = next
	}
}

// OpenFolder enters folder.
func (s *Session) OpenFolder(ctx context.Context, folder models.Folder) error {
	load, err := s.Navigator.Open(ctx, folder)
	if err != nil {
		return err
	}
	return s.wait(ctx, load)
}

func (s *Session) NavigateHome(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.NavigateHome(ctx))
}

func (s *Session) NavigateUp(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.NavigateUp(ctx))
}

func (s *Session) NavigateToBreadcrumb(ctx context.Context, index int) error {
	return s.wait(ctx, s.Navigator.NavigateToBreadcrumb(ctx, index))
}

func (s *Session) LoadRecycleBin(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.LoadRecycleBin(ctx))
}

func (s *Session) LoadRecentFiles(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.LoadRecentFiles(ctx))
}

func (s *Session) LoadDownloads(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.LoadDownloads(ctx))
}

// Search shows results for query, normalized to NFC. A blank query does nothing.
func (s *Session) Search(ctx context.Context, query string) error {
	return s.wait(ctx, s.Navigator.PerformSearch(ctx, norm.NFC.String(query)))
}

func (s *Session) ClearSearch(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.ClearSearch(ctx))
}

func (s *Session) Reload(ctx context.Context) error {
	return s.wait(ctx, s.Navigator.Reload(ctx))
}

// PreviewFile downloads file for display, reading a matching local copy
// instead when one was downloaded before. Images and PDFs are always
// previewable; other files only when their content looks like text.
func (s *Session) PreviewFile(ctx context.Context, file models.FileMetadata) (models.Preview, error) {
	if !s.Navigator.CanPreview() {
		return models.Preview{}, models.ErrRecycleBinReadOnly
	}

	content, ok := s.cachedCopy(file)
	if !ok {
		var err error
		content, err = s.files.Download(ctx, file.ID)
		if err != nil {
			s.Notices.Notify(events.ErrorNotice("preview", err))
			return models.Preview{}, fmt.Errorf("preview %s: %w", file.Name, err)
		}
	}

	kind := models.DetectPreviewKind(file, content)
	if kind == models.PreviewNone {
		return models.Preview{}, fmt.Errorf("preview %s: %w", file.Name, models.ErrNotPreviewable)
	}

	return models.Preview{File: file, Kind: kind, Content: content}, nil
}

// cachedCopy returns a previously downloaded copy of file when one of the
// same size sits under its own name in the download directory.
func (s *Session) cachedCopy(file models.FileMetadata) ([]byte, bool) {
	if file.Size <= 0 {
		return nil, false
	}
	exists, err := s.downloads.Exists(file.Name)
	if err != nil || !exists {
		return nil, false
	}
	info, err := s.downloads.Stat(file.Name)
	if err != nil || info.IsDir || info.Size != file.Size {
		return nil, false
	}
	content, err := s.downloads.Read(file.Name)
	if err != nil {
		return nil, false
	}

	s.logger.WithFields(map[string]interface{}{
		"file_id": file.ID,
		"path":    info.Path,
	}).Debug("Previewing downloaded copy")
	return content, true
}

// DownloadFile stores file under the download directory as dest, or as its
// own name when dest is empty, and returns the absolute path written.
func (s *Session) DownloadFile(ctx context.Context, file models.FileMetadata, dest string) (string, error) {
	if !s.Navigator.CanPreview() {
		return "", models.ErrRecycleBinReadOnly
	}
	if dest == "" {
		dest = file.Name
	}

	content, err := s.files.Download(ctx, file.ID)
	if err == nil {
		var rel string
		rel, err = s.downloads.Save(dest, bytes.NewReader(content))
		if err == nil {
			path := filepath.Join(s.downloads.BaseDir(), filepath.FromSlash(rel))
			s.logger.WithFields(map[string]interface{}{
				"file_id": file.ID,
				"path":    path,
			}).Info("File downloaded")
			return path, nil
		}
	}

	s.Notices.Notify(models.Notice{
		Kind:    models.NoticeError,
		Op:      "download",
		Message: "Failed to download file: " + models.UserMessage(err),
		Err:     err,
	})
	return "", fmt.Errorf("download %s: %w", file.Name, err)
}

// LocalDownloads lists the download directory root with content hashes.
func (s *Session) LocalDownloads() ([]storage.FileInfo, error) {
	entries, err := s.downloads.List()
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}

	files := make([]storage.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			files = append(files, e)
			continue
		}
		info, err := s.downloads.Stat(e.Path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Path, err)
		}
		files = append(files, info)
	}
	return files, nil
}

// RemoveDownload deletes a downloaded file, given relative to the download
// directory. Directories left empty are removed with it.
func (s *Session) RemoveDownload(name string) error {
	exists, err := s.downloads.Exists(name)
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("remove %s: %w", name, storage.ErrNotFound)
	}
	if err := s.downloads.Delete(name); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}

	s.logger.WithField("path", name).Info("Download removed")
	return nil
}

// UploadFiles uploads local paths into the current folder.
func (s *Session) UploadFiles(ctx context.Context, paths []string) (mutation.UploadResult, error) {
	sources := make([]mutation.UploadSource, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, localSource(p))
	}
	return s.Mutations.Upload(ctx, sources)
}

func localSource(path string) mutation.UploadSource {
	src := mutation.UploadSource{Name: filepath.Base(path)}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		src.Open = func() (io.ReadCloser, error) { return nil, err }
	case info.IsDir():
		src.Open = func() (io.ReadCloser, error) {
			return nil, fmt.Errorf("%s is a directory", path)
		}
	default:
		src.Size = info.Size()
		src.Open = func() (io.ReadCloser, error) { return os.Open(path) }
	}
	return src
}

func (s *Session) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	return s.Mutations.CreateFolder(ctx, name)
}

func (s *Session) RenameFolder(ctx context.Context, folder models.Folder, name string) error {
	return s.Mutations.RenameFolder(ctx, folder, name)
}

func (s *Session) MoveFolder(ctx context.Context, folder models.Folder, targetID int64) error {
	return s.Mutations.MoveFolder(ctx, folder, targetID)
}

func (s *Session) DeleteFolder(ctx context.Context, folder models.Folder) error {
	return s.Mutations.DeleteFolder(ctx, folder)
}

func (s *Session) RestoreFolder(ctx context.Context, folder models.Folder) error {
	return s.Mutations.RestoreFolder(ctx, folder)
}

func (s *Session) PurgeFolder(ctx context.Context, folder models.Folder) error {
	return s.Mutations.PurgeFolder(ctx, folder)
}

func (s *Session) MoveFile(ctx context.Context, file models.FileMetadata, targetID int64) error {
	return s.Mutations.MoveFile(ctx, file, targetID)
}

func (s *Session) DeleteFile(ctx context.Context, file models.FileMetadata) error {
	return s.Mutations.DeleteFile(ctx, file)
}

func (s *Session) RestoreFile(ctx context.Context, file models.FileMetadata) error {
	return s.Mutations.RestoreFile(ctx, file)
}

func (s *Session) PurgeFile(ctx context.Context, file models.FileMetadata) error {
	return s.Mutations.PurgeFile(ctx, file)
}

// ApplyIntent carries out a drop produced by the drag protocol.
func (s *Session) ApplyIntent(ctx context.Context, intent dragdrop.Intent) error {
	switch intent.Kind {
	case dragdrop.IntentMoveFile:
		if intent.File == nil {
			return fmt.Errorf("move file intent without a file")
		}
		return s.MoveFile(ctx, *intent.File, intent.TargetFolderID)

	case dragdrop.IntentMoveFolder:
		if intent.Folder == nil {
			return fmt.Errorf("move folder intent without a folder")
		}
		return s.MoveFolder(ctx, *intent.Folder, intent.TargetFolderID)

	case dragdrop.IntentUpload:
		_, err := s.UploadFiles(ctx, intent.Paths)
		return err

	default:
		return fmt.Errorf("unknown intent %q", intent.Kind)
	}
}

// FindFolder looks up a folder in the current listing by id or by
// case-insensitive name.
func (s *Session) FindFolder(ref string) (models.Folder, error) {
	folders := s.Navigator.Snapshot().Folders
	for _, f := range folders {
		if matches(ref, f.ID, f.Name) {
			return f, nil
		}
	}
	return models.Folder{}, fmt.Errorf("folder %q: %w", ref, models.ErrNotFound)
}

// FindFile looks up a file in the current listing by id or by
// case-insensitive name.
func (s *Session) FindFile(ref string) (models.FileMetadata, error) {
	files := s.Navigator.Snapshot().Files
	for _, f := range files {
		if matches(ref, f.ID, f.Name) {
			return f, nil
		}
	}
	return models.FileMetadata{}, fmt.Errorf("file %q: %w", ref, models.ErrNotFound)
}

func matches(ref string, id int64, name string) bool {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.ParseInt(ref, 10, 64); err == nil && n == id {
		return true
	}
	fold := cases.Fold()
	return fold.String(norm.NFC.String(ref)) == fold.String(norm.NFC.String(name))
}

// SaveSession persists the current location under profile.
func (s *Session) SaveSession(profile string) error {
	session := s.Navigator.Session()
	return s.store.Save(profile, &session)
}

// RestoreSession resumes the location saved under profile. Without a usable
// saved session it starts at the configured start folder.
func (s *Session) RestoreSession(ctx context.Context, profile string) error {
	saved, err := s.store.Load(profile)
	switch {
	case errors.Is(err, state.ErrStateNotFound):
		return s.openStartFolder(ctx)
	case err != nil:
		s.logger.WithError(err).WithField("profile", profile).Warn("Saved session unreadable, starting fresh")
		return s.openStartFolder(ctx)
	}

	load, err := s.Navigator.Restore(ctx, *saved)
	if err != nil {
		s.logger.WithError(err).WithField("profile", profile).Warn("Saved session invalid, starting fresh")
		return s.openStartFolder(ctx)
	}
	return s.wait(ctx, load)
}

// ResetSession forgets the session saved under profile.
func (s *Session) ResetSession(profile string) error {
	return s.store.Reset(profile)
}

// Profiles lists profiles with a saved session.
func (s *Session) Profiles() ([]string, error) {
	return s.store.List()
}

// MigrateSessions copies every saved session into the backend store under
// the state directory and returns how many profiles the target then holds.
// The configured backend stays in use until storage.state_backend changes.
func (s *Session) MigrateSessions(backend string) (int, error) {
	switch backend {
	case s.config.Storage.StateBackend:
		return 0, fmt.Errorf("sessions already use the %s backend", backend)
	case "memory":
		return 0, errors.New("the memory backend does not keep sessions")
	}

	target, err := state.Open(backend, s.config.Storage.StateDir, s.logger)
	if err != nil {
		return 0, fmt.Errorf("open %s store: %w", backend, err)
	}
	defer target.Close()

	if err := s.store.Migrate(target); err != nil {
		return 0, fmt.Errorf("migrate sessions: %w", err)
	}
	profiles, err := target.List()
	if err != nil {
		return 0, fmt.Errorf("list migrated sessions: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"from":     s.config.Storage.StateBackend,
		"to":       backend,
		"profiles": len(profiles),
	}).Info("Sessions migrated")
	return len(profiles), nil
}

func (s *Session) openStartFolder(ctx context.Context) error {
	start := s.config.Navigation.StartFolderID
	if start <= 0 || start == models.RootFolderID {
		return s.NavigateHome(ctx)
	}

	load, err := s.Navigator.Restore(ctx, models.Session{
		Trail:    models.NewTrail(models.FolderEntry(start, "")),
		Location: models.FolderLocation(start),
	})
	if err != nil {
		return err
	}
	return s.wait(ctx, load)
}

// WatchChanges subscribes to the server change feed and reloads the current
// listing when a notice affects it. It returns once the feed is connected;
// watching stops when ctx ends.
func (s *Session) WatchChanges(ctx context.Context) error {
	if s.config.Changes.URL == "" {
		return ErrChangesNotConfigured
	}

	feed, err := s.transport.StreamChanges(ctx, s.config.Changes.URL)
	if err != nil {
		return err
	}

	go s.Navigator.WatchChanges(ctx, feed)
	return nil
}
