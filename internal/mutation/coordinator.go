// Package mutation issues create, rename, move, delete, restore, purge and
// upload requests against the current location and reloads the listing once
// they succeed. Listings are never patched locally.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/metrics"
	"github.com/TheMichaelB/filedeck/internal/models"
	"github.com/TheMichaelB/filedeck/internal/navigation"
)

// Operation names, used in notices, errors and metrics.
const (
	OpCreateFolder  = "create folder"
	OpRenameFolder  = "rename folder"
	OpMoveFolder    = "move folder"
	OpDeleteFolder  = "delete folder"
	OpRestoreFolder = "restore folder"
	OpPurgeFolder   = "purge folder"
	OpMoveFile      = "move file"
	OpDeleteFile    = "delete file"
	OpRestoreFile   = "restore file"
	OpPurgeFile     = "purge file"
	OpUpload        = "upload"
)

// Backend performs the mutations.
type Backend interface {
	CreateFolder(ctx context.Context, name string, parentID int64) (models.Folder, error)
	RenameFolder(ctx context.Context, folderID int64, name string) error
	MoveFolder(ctx context.Context, folderID, targetID int64) error
	DeleteFolder(ctx context.Context, folderID int64) error
	RestoreFolder(ctx context.Context, folderID int64) error
	PurgeFolder(ctx context.Context, folderID int64) error
	MoveFile(ctx context.Context, fileID, targetID int64) error
	DeleteFile(ctx context.Context, fileID int64) error
	RestoreFile(ctx context.Context, fileID int64) error
	PurgeFile(ctx context.Context, fileID int64) error
	Upload(ctx context.Context, folderID int64, name string, content io.Reader) (models.FileMetadata, error)
}

// Navigator is the part of the navigation state the coordinator drives.
type Navigator interface {
	Snapshot() models.NavigationState
	SetLoading(loading bool)
	Reload(ctx context.Context) *navigation.Load
}

// Options configures a Coordinator.
type Options struct {
	MaxConcurrentUploads int
	MaxFileSize          int64
	Notifier             events.Notifier
	Logger               *events.Logger
}

// Coordinator runs mutations scoped to the navigator's current location.
type Coordinator struct {
	backend  Backend
	nav      Navigator
	notifier events.Notifier
	logger   *events.Logger

	maxConcurrent int
	maxFileSize   int64
}

// New creates a coordinator.
func New(backend Backend, nav Navigator, opts Options) *Coordinator {
	if opts.MaxConcurrentUploads <= 0 {
		opts.MaxConcurrentUploads = 4
	}
	if opts.Logger == nil {
		opts.Logger = events.NewNopLogger()
	}

	return &Coordinator{
		backend:       backend,
		nav:           nav,
		notifier:      opts.Notifier,
		logger:        opts.Logger.WithField("component", "mutation"),
		maxConcurrent: opts.MaxConcurrentUploads,
		maxFileSize:   opts.MaxFileSize,
	}
}

// CreateFolder creates name inside the current folder.
func (c *Coordinator) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	name = cleanName(name)
	if name == "" {
		return models.Folder{}, models.ErrEmptyName
	}

	state := c.nav.Snapshot()
	if !acceptsNewItems(state) {
		return models.Folder{}, models.ErrInvalidTarget
	}

	var created models.Folder
	err := c.run(ctx, OpCreateFolder, 0, func(ctx context.Context) error {
		var err error
		created, err = c.backend.CreateFolder(ctx, name, state.CurrentFolderID)
		return err
	})
	return created, err
}

// RenameFolder renames folder. An empty or unchanged name sends nothing and
// returns ErrNoChange.
func (c *Coordinator) RenameFolder(ctx context.Context, folder models.Folder, newName string) error {
	newName = cleanName(newName)
	if newName == "" || newName == cleanName(folder.Name) {
		return models.ErrNoChange
	}

	return c.run(ctx, OpRenameFolder, folder.ID, func(ctx context.Context) error {
		return c.backend.RenameFolder(ctx, folder.ID, newName)
	})
}

// MoveFolder moves folder under targetID.
func (c *Coordinator) MoveFolder(ctx context.Context, folder models.Folder, targetID int64) error {
	if targetID <= 0 || targetID == folder.ID {
		return models.ErrInvalidTarget
	}

	return c.run(ctx, OpMoveFolder, folder.ID, func(ctx context.Context) error {
		return c.backend.MoveFolder(ctx, folder.ID, targetID)
	})
}

// DeleteFolder sends folder to the recycle bin.
func (c *Coordinator) DeleteFolder(ctx context.Context, folder models.Folder) error {
	return c.run(ctx, OpDeleteFolder, folder.ID, func(ctx context.Context) error {
		return c.backend.DeleteFolder(ctx, folder.ID)
	})
}

// RestoreFolder takes folder out of the recycle bin.
func (c *Coordinator) RestoreFolder(ctx context.Context, folder models.Folder) error {
	return c.run(ctx, OpRestoreFolder, folder.ID, func(ctx context.Context) error {
		return c.backend.RestoreFolder(ctx, folder.ID)
	})
}

// PurgeFolder erases folder permanently.
func (c *Coordinator) PurgeFolder(ctx context.Context, folder models.Folder) error {
	return c.run(ctx, OpPurgeFolder, folder.ID, func(ctx context.Context) error {
		return c.backend.PurgeFolder(ctx, folder.ID)
	})
}

// MoveFile moves file into targetID.
func (c *Coordinator) MoveFile(ctx context.Context, file models.FileMetadata, targetID int64) error {
	if targetID <= 0 {
		return models.ErrInvalidTarget
	}

	return c.run(ctx, OpMoveFile, file.ID, func(ctx context.Context) error {
		return c.backend.MoveFile(ctx, file.ID, targetID)
	})
}

// DeleteFile sends file to the recycle bin.
func (c *Coordinator) DeleteFile(ctx context.Context, file models.FileMetadata) error {
	return c.run(ctx, OpDeleteFile, file.ID, func(ctx context.Context) error {
		return c.backend.DeleteFile(ctx, file.ID)
	})
}

// RestoreFile takes file out of the recycle bin.
func (c *Coordinator) RestoreFile(ctx context.Context, file models.FileMetadata) error {
	return c.run(ctx, OpRestoreFile, file.ID, func(ctx context.Context) error {
		return c.backend.RestoreFile(ctx, file.ID)
	})
}

// PurgeFile erases file permanently.
func (c *Coordinator) PurgeFile(ctx context.Context, file models.FileMetadata) error {
	return c.run(ctx, OpPurgeFile, file.ID, func(ctx context.Context) error {
		return c.backend.PurgeFile(ctx, file.ID)
	})
}

// run marks the listing as loading, performs call and reloads on success.
// A failure clears the loading flag and raises a notice.
func (c *Coordinator) run(ctx context.Context, op string, targetID int64, call func(context.Context) error) error {
	logger := c.logger.WithFields(map[string]interface{}{
		"op":        op,
		"target_id": targetID,
	})

	c.nav.SetLoading(true)
	err := call(ctx)
	metrics.RecordMutation(op, err)

	if err != nil {
		c.nav.SetLoading(false)
		logger.WithError(err).Warn("Mutation failed")
		c.notify(failureNotice(op, err))
		return &models.MutationError{Op: op, TargetID: targetID, Err: err}
	}

	logger.Info("Mutation succeeded")
	c.reload(ctx)
	return nil
}

// reload refreshes the current location and waits for it. Reload failures
// are reported by the navigator itself.
func (c *Coordinator) reload(ctx context.Context) {
	err := c.nav.Reload(ctx).Wait(ctx)
	if err != nil && !errors.Is(err, navigation.ErrSuperseded) {
		c.logger.WithError(err).Debug("Reload after mutation failed")
	}
}

func (c *Coordinator) notify(n models.Notice) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}

func failureNotice(op string, err error) models.Notice {
	n := events.ErrorNotice(op, err)
	n.Message = fmt.Sprintf("Failed to %s: %s", op, n.Message)
	return n
}

func acceptsNewItems(state models.NavigationState) bool {
	return state.ViewMode != models.ViewRecycleBin && state.CurrentFolderID > 0
}

// cleanName trims and NFC-normalizes a user supplied name.
func cleanName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
