package testutil

import (
	"bytes"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// Ids of the sample tree seeded by SeedSampleTree.
const (
	DocsID      int64 = 2
	PhotosID    int64 = 3
	DownloadsID int64 = 4
	InvoicesID  int64 = 14

	ReportID  int64 = 10
	PhotoID   int64 = 11
	NotesID   int64 = 12
	ArchiveID int64 = 13
	ManualID  int64 = 15
)

// Sample file contents.
var (
	ReportContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	PhotoContent  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	NotesContent  = []byte("remember the milk\n")
)

// SeedSampleTree fills ts with:
//
//	Root(1)
//	├── Docs(2)
//	│   ├── Invoices(14)
//	│   └── report.pdf(10)
//	├── Photos(3)
//	│   └── photo.png(11)
//	├── Downloads(4)
//	│   └── manual.pdf(15)
//	├── notes.txt(12)
//	└── archive.zip(13)
func SeedSampleTree(ts *TestServer) {
	ts.AddFolder(DocsID, models.RootFolderID, "Docs")
	ts.AddFolder(PhotosID, models.RootFolderID, "Photos")
	ts.AddFolder(DownloadsID, models.RootFolderID, "Downloads")
	ts.AddFolder(InvoicesID, DocsID, "Invoices")

	ts.AddFile(ReportID, DocsID, "report.pdf", ReportContent)
	ts.AddFile(PhotoID, PhotosID, "photo.png", PhotoContent)
	ts.AddFile(NotesID, models.RootFolderID, "notes.txt", NotesContent)
	ts.AddFile(ArchiveID, models.RootFolderID, "archive.zip", []byte("PK\x03\x04\x00\x00"))
	ts.AddFile(ManualID, DownloadsID, "manual.pdf", []byte("%PDF-1.7"))

	ts.SetDownloadsFolder(DownloadsID)
	ts.SetRecent(ReportID, PhotoID)
}

// SampleFolder returns the Docs folder as it appears in a Root listing.
func SampleFolder() models.Folder {
	parent := models.RootFolderID
	return models.Folder{ID: DocsID, Name: "Docs", ParentFolderID: &parent}
}

// SampleFile returns report.pdf as it appears in the Docs listing.
func SampleFile() models.FileMetadata {
	return models.FileMetadata{ID: ReportID, Name: "report.pdf", Size: int64(len(ReportContent)), Extension: ".pdf"}
}
