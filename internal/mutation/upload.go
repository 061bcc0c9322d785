package mutation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/metrics"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// ErrFileTooLarge is reported for sources over the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum upload size")

// UploadSource is one file selected for upload.
type UploadSource struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFailure records a source that did not upload.
type UploadFailure struct {
	Name string
	Err  error
}

// UploadResult summarizes a batch.
type UploadResult struct {
	BatchID   string
	Completed int
	Succeeded []models.FileMetadata
	Failed    []UploadFailure
	Reloaded  bool
}

// Upload sends every source into the current folder concurrently. Each
// source counts as completed whether it succeeds or fails. Once all have
// completed the listing is reloaded exactly once if every upload succeeded;
// otherwise nothing is reloaded and the loading flag is cleared.
func (c *Coordinator) Upload(ctx context.Context, sources []UploadSource) (UploadResult, error) {
	result := UploadResult{BatchID: events.NewRequestID()}

	state := c.nav.Snapshot()
	if !acceptsNewItems(state) {
		return result, models.ErrInvalidTarget
	}
	if len(sources) == 0 {
		return result, nil
	}

	folderID := state.CurrentFolderID
	logger := c.logger.WithFields(map[string]interface{}{
		"batch_id":  result.BatchID,
		"folder_id": folderID,
		"count":     len(sources),
	})
	logger.Info("Starting upload batch")

	c.nav.SetLoading(true)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for _, src := range sources {
		g.Go(func() error {
			file, err := c.uploadOne(gctx, folderID, src)
			metrics.RecordUpload(src.Size, err)

			mu.Lock()
			defer mu.Unlock()
			result.Completed++
			if err != nil {
				result.Failed = append(result.Failed, UploadFailure{Name: src.Name, Err: err})
			} else {
				result.Succeeded = append(result.Succeeded, file)
			}
			// Failures are collected, never returned, so one failed file
			// does not cancel the rest of the batch.
			return nil
		})
	}
	_ = g.Wait()

	if len(result.Failed) > 0 {
		c.nav.SetLoading(false)
		for _, f := range result.Failed {
			logger.WithError(f.Err).WithField("file", f.Name).Warn("Upload failed")
			c.notify(failureNotice(fmt.Sprintf("%s %s", OpUpload, f.Name), f.Err))
		}
		return result, &models.MutationError{
			Op:  OpUpload,
			Err: fmt.Errorf("%d of %d files failed", len(result.Failed), len(sources)),
		}
	}

	logger.Info("Upload batch complete")
	c.reload(ctx)
	result.Reloaded = true
	return result, nil
}

func (c *Coordinator) uploadOne(ctx context.Context, folderID int64, src UploadSource) (models.FileMetadata, error) {
	if c.maxFileSize > 0 && src.Size > c.maxFileSize {
		return models.FileMetadata{}, fmt.Errorf("%s: %w", src.Name, ErrFileTooLarge)
	}
	if src.Open == nil {
		return models.FileMetadata{}, fmt.Errorf("%s: no content", src.Name)
	}

	r, err := src.Open()
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer r.Close()

	return c.backend.Upload(ctx, folderID, src.Name, r)
}
