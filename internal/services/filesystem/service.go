// Package filesystem is a typed client for the file-storage REST endpoints.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/listing"
	"github.com/TheMichaelB/filedeck/internal/models"
	"github.com/TheMichaelB/filedeck/internal/transport"
)

// Service wraps the backend endpoints.
type Service struct {
	transport transport.Transport
	logger    *events.Logger
}

// NewService creates a filesystem service.
func NewService(transport transport.Transport, logger *events.Logger) *Service {
	return &Service{
		transport: transport,
		logger:    logger.WithField("service", "filesystem"),
	}
}

// FolderContents lists a folder.
func (s *Service) FolderContents(ctx context.Context, folderID int64) (listing.Listing, error) {
	s.logger.WithField("folder_id", folderID).Debug("Fetching folder contents")

	resp, err := s.transport.GetJSON(ctx, fmt.Sprintf("folder/%d", folderID))
	if err != nil {
		return listing.Listing{}, fmt.Errorf("get folder %d: %w", folderID, err)
	}
	return listing.Normalize(resp), nil
}

// RecycleBin lists soft-deleted folders and files.
func (s *Service) RecycleBin(ctx context.Context) (listing.Listing, error) {
	resp, err := s.transport.GetJSON(ctx, "recycle-bin")
	if err != nil {
		return listing.Listing{}, fmt.Errorf("get recycle bin: %w", err)
	}
	return listing.Normalize(resp), nil
}

// Recent lists recently touched files.
func (s *Service) Recent(ctx context.Context) (listing.Listing, error) {
	resp, err := s.transport.GetJSON(ctx, "recent")
	if err != nil {
		return listing.Listing{}, fmt.Errorf("get recent files: %w", err)
	}
	return listing.Normalize(resp), nil
}

// Downloads lists the well-known Downloads folder. The listing carries the
// folder's real id.
func (s *Service) Downloads(ctx context.Context) (listing.Listing, error) {
	resp, err := s.transport.GetJSON(ctx, "downloads")
	if err != nil {
		return listing.Listing{}, fmt.Errorf("get downloads: %w", err)
	}
	return listing.Normalize(resp), nil
}

// Search runs a name search.
func (s *Service) Search(ctx context.Context, query string) (listing.Listing, error) {
	s.logger.WithField("query", query).Debug("Searching")

	resp, err := s.transport.GetJSON(ctx, "search?query="+url.QueryEscape(query))
	if err != nil {
		return listing.Listing{}, fmt.Errorf("search %q: %w", query, err)
	}
	return listing.Normalize(resp), nil
}

// CreateFolder creates name under parentID.
func (s *Service) CreateFolder(ctx context.Context, name string, parentID int64) (models.Folder, error) {
	resp, err := s.transport.PostJSON(ctx, "folder", map[string]interface{}{
		"name":           name,
		"parentFolderId": parentID,
	})
	if err != nil {
		return models.Folder{}, fmt.Errorf("create folder: %w", err)
	}

	folder, ok := listing.Folder(resp)
	if !ok {
		// Some backends answer 201 with no body.
		folder = models.Folder{Name: name, ParentFolderID: &parentID}
	}

	s.logger.WithFields(map[string]interface{}{
		"folder_id": folder.ID,
		"parent_id": parentID,
	}).Info("Created folder")
	return folder, nil
}

// RenameFolder renames a folder.
func (s *Service) RenameFolder(ctx context.Context, folderID int64, name string) error {
	_, err := s.transport.PutJSON(ctx, fmt.Sprintf("folder/%d/rename", folderID), map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return fmt.Errorf("rename folder: %w", err)
	}
	return nil
}

// DeleteFolder moves a folder to the recycle bin.
func (s *Service) DeleteFolder(ctx context.Context, folderID int64) error {
	if _, err := s.transport.DeleteJSON(ctx, fmt.Sprintf("folder/%d", folderID)); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return nil
}

// MoveFolder reparents a folder.
func (s *Service) MoveFolder(ctx context.Context, folderID, targetID int64) error {
	_, err := s.transport.PutJSON(ctx, fmt.Sprintf("folder/%d/move", folderID), map[string]interface{}{
		"targetFolderId": targetID,
	})
	if err != nil {
		return fmt.Errorf("move folder: %w", err)
	}
	return nil
}

// RestoreFolder brings a folder back from the recycle bin.
func (s *Service) RestoreFolder(ctx context.Context, folderID int64) error {
	if _, err := s.transport.PutJSON(ctx, fmt.Sprintf("folder/%d/restore", folderID), map[string]interface{}{}); err != nil {
		return fmt.Errorf("restore folder: %w", err)
	}
	return nil
}

// PurgeFolder erases a folder permanently.
func (s *Service) PurgeFolder(ctx context.Context, folderID int64) error {
	if _, err := s.transport.DeleteJSON(ctx, fmt.Sprintf("folder/%d/purge", folderID)); err != nil {
		return fmt.Errorf("purge folder: %w", err)
	}
	return nil
}

// MoveFile moves a file into another folder.
func (s *Service) MoveFile(ctx context.Context, fileID, targetID int64) error {
	_, err := s.transport.PutJSON(ctx, fmt.Sprintf("file/%d/move", fileID), map[string]interface{}{
		"targetFolderId": targetID,
	})
	if err != nil {
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

// DeleteFile moves a file to the recycle bin.
func (s *Service) DeleteFile(ctx context.Context, fileID int64) error {
	if _, err := s.transport.DeleteJSON(ctx, fmt.Sprintf("file/%d", fileID)); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// RestoreFile brings a file back from the recycle bin.
func (s *Service) RestoreFile(ctx context.Context, fileID int64) error {
	if _, err := s.transport.PutJSON(ctx, fmt.Sprintf("file/%d/restore", fileID), map[string]interface{}{}); err != nil {
		return fmt.Errorf("restore file: %w", err)
	}
	return nil
}

// PurgeFile erases a file permanently.
func (s *Service) PurgeFile(ctx context.Context, fileID int64) error {
	if _, err := s.transport.DeleteJSON(ctx, fmt.Sprintf("file/%d/purge", fileID)); err != nil {
		return fmt.Errorf("purge file: %w", err)
	}
	return nil
}

// Upload sends one file into folderID.
func (s *Service) Upload(ctx context.Context, folderID int64, name string, content io.Reader) (models.FileMetadata, error) {
	resp, err := s.transport.PostMultipart(ctx, "upload", transport.MultipartForm{
		Fields:    map[string]string{"folderId": strconv.FormatInt(folderID, 10)},
		FileField: "file",
		FileName:  name,
		File:      content,
	})
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("upload %s: %w", name, err)
	}

	file, ok := listing.File(resp)
	if !ok {
		file = models.FileMetadata{Name: name}
	}

	s.logger.WithFields(map[string]interface{}{
		"file":      name,
		"folder_id": folderID,
	}).Info("Uploaded file")
	return file, nil
}

// Download fetches a file's content.
func (s *Service) Download(ctx context.Context, fileID int64) ([]byte, error) {
	data, err := s.transport.Download(ctx, fmt.Sprintf("download/%d", fileID))
	if err != nil {
		return nil, fmt.Errorf("download file %d: %w", fileID, err)
	}
	return data, nil
}
