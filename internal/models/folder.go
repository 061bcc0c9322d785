package models

import (
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// RootFolderID is the well-known id of the root folder.
const RootFolderID int64 = 1

// RootName is the display name of the root folder.
const RootName = "Root"

// Folder is a folder record as listed by the backend.
type Folder struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	ParentFolderID *int64         `json:"parentFolderId,omitempty"`
	SubFolders     []Folder       `json:"subFolders,omitempty"`
	Files          []FileMetadata `json:"files,omitempty"`
}

// IsRoot reports whether f is the root folder.
func (f Folder) IsRoot() bool {
	return f.ID == RootFolderID
}

// FileMetadata describes a stored file.
type FileMetadata struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

// Ext returns the lowercased extension with a leading dot, falling back to the name.
func (f FileMetadata) Ext() string {
	ext := strings.ToLower(strings.TrimSpace(f.Extension))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(f.Name))
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsImage reports whether the file renders as an image preview.
func (f FileMetadata) IsImage() bool {
	return imageExtensions[f.Ext()]
}

// IsPDF reports whether the file renders as a PDF preview.
func (f FileMetadata) IsPDF() bool {
	return f.Ext() == ".pdf"
}

// IsPreviewable reports whether a preview is offered for the file.
func (f FileMetadata) IsPreviewable() bool {
	return f.IsImage() || f.IsPDF()
}

// HumanSize formats the size for listings.
func (f FileMetadata) HumanSize() string {
	return HumanSize(f.Size)
}

// HumanSize formats a byte count in binary units (KiB, MiB, ...).
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
