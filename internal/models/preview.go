package models

import "bytes"

// PreviewKind is how a file's content is presented.
type PreviewKind string

const (
	PreviewNone  PreviewKind = ""
	PreviewImage PreviewKind = "image"
	PreviewPDF   PreviewKind = "pdf"
	PreviewText  PreviewKind = "text"
)

// Preview is a downloaded file ready for display.
type Preview struct {
	File    FileMetadata `json:"file"`
	Kind    PreviewKind  `json:"kind"`
	Content []byte       `json:"-"`
}

// Extensions that are never shown as text.
var binaryExtensions = map[string]bool{
	".bmp": true, ".ico": true, ".tiff": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".odt": true, ".ods": true, ".odp": true,
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
	".bz2": true, ".xz": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mkv": true, ".mov": true,
	".wav": true, ".flac": true, ".aac": true, ".ogg": true, ".wma": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
}

// PreviewKindFor picks the preview kind from the file metadata alone.
// Files that are neither image nor PDF need their content inspected.
func PreviewKindFor(f FileMetadata) PreviewKind {
	switch {
	case f.IsImage():
		return PreviewImage
	case f.IsPDF():
		return PreviewPDF
	default:
		return PreviewNone
	}
}

// DetectPreviewKind picks the preview kind, falling back to text for content
// that does not look binary.
func DetectPreviewKind(f FileMetadata, content []byte) PreviewKind {
	if kind := PreviewKindFor(f); kind != PreviewNone {
		return kind
	}
	if binaryExtensions[f.Ext()] || IsBinaryContent(content) {
		return PreviewNone
	}
	return PreviewText
}

// IsBinaryContent sniffs the first 8KB for null bytes or a high share of
// control characters.
func IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	checkLen := len(content)
	if checkLen > 8192 {
		checkLen = 8192
	}

	if bytes.IndexByte(content[:checkLen], 0) != -1 {
		return true
	}

	nonPrintable := 0
	for _, b := range content[:checkLen] {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(checkLen) > 0.3
}
