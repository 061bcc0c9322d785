// Package dragdrop interprets drag gestures over folder tiles, breadcrumb
// entries and the background into move and upload intents.
package dragdrop

import (
	"sync"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// Kind is what an internal drag carries.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Session is the active internal drag.
type Session struct {
	Kind   Kind                 `json:"kind"`
	File   *models.FileMetadata `json:"file,omitempty"`
	Folder *models.Folder       `json:"folder,omitempty"`
}

// IntentKind names the action a drop asks for.
type IntentKind string

const (
	IntentMoveFile   IntentKind = "move-file"
	IntentMoveFolder IntentKind = "move-folder"
	IntentUpload     IntentKind = "upload"
)

// Intent is the outcome of a drop.
type Intent struct {
	Kind           IntentKind           `json:"kind"`
	File           *models.FileMetadata `json:"file,omitempty"`
	Folder         *models.Folder       `json:"folder,omitempty"`
	TargetFolderID int64                `json:"targetFolderId,omitempty"`
	Paths          []string             `json:"paths,omitempty"`
}

// ExternalPayload describes a drag that may come from outside the client.
type ExternalPayload struct {
	Types []string
	Paths []string
}

// HasFiles reports whether the payload advertises file data.
func (p ExternalPayload) HasFiles() bool {
	if len(p.Paths) > 0 {
		return true
	}
	for _, t := range p.Types {
		if t == "Files" {
			return true
		}
	}
	return false
}

// State is a copy of the protocol's presentational state.
type State struct {
	Session           *Session `json:"session,omitempty"`
	HoverFolderID     *int64   `json:"hoverFolderId,omitempty"`
	HoverBreadcrumbID *int64   `json:"hoverBreadcrumbId,omitempty"`
}

// Protocol tracks one drag gesture at a time.
//
// File and folder flags are kept separately. A file drag takes priority on
// drop, so a folder flag left behind by an aborted gesture never hijacks a
// later file drop. Starting a folder drag clears any file flag.
type Protocol struct {
	mu sync.Mutex

	activeFile   *models.FileMetadata
	activeFolder *models.Folder
	last         Kind

	hoverFolderID     *int64
	hoverBreadcrumbID *int64
}

// New returns an idle protocol.
func New() *Protocol {
	return &Protocol{}
}

// StartFileDrag begins dragging file.
func (p *Protocol) StartFileDrag(file models.FileMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.activeFile = &file
	p.last = KindFile
	p.clearHover()
}

// StartFolderDrag begins dragging folder.
func (p *Protocol) StartFolderDrag(folder models.Folder) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.activeFolder = &folder
	p.activeFile = nil
	p.last = KindFolder
	p.clearHover()
}

// DragOverFolder reports whether target accepts the drag and marks it
// hovered if so. A folder never accepts itself.
func (p *Protocol) DragOverFolder(target models.Folder) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.accepts(target.ID) {
		return false
	}
	id := target.ID
	p.hoverFolderID = &id
	return true
}

// DragLeaveFolder clears the hover if target is the hovered folder.
func (p *Protocol) DragLeaveFolder(target models.Folder) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.hoverFolderID != nil && *p.hoverFolderID == target.ID {
		p.hoverFolderID = nil
	}
}

// DropOnFolder resolves a drop onto a folder tile and ends the gesture.
func (p *Protocol) DropOnFolder(target models.Folder) (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer p.reset()
	return p.moveIntent(target.ID)
}

// DragOverBreadcrumb reports whether entry accepts the drag and marks it
// hovered if so. Virtual entries never accept.
func (p *Protocol) DragOverBreadcrumb(entry models.BreadcrumbEntry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !entry.AcceptsDrop() || !p.accepts(entry.ID) {
		return false
	}
	id := entry.ID
	p.hoverBreadcrumbID = &id
	return true
}

// DragLeaveBreadcrumb clears the hover if entry is the hovered one.
func (p *Protocol) DragLeaveBreadcrumb(entry models.BreadcrumbEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.hoverBreadcrumbID != nil && *p.hoverBreadcrumbID == entry.ID {
		p.hoverBreadcrumbID = nil
	}
}

// DropOnBreadcrumb resolves a drop onto a breadcrumb entry, moving to that
// ancestor, and ends the gesture.
func (p *Protocol) DropOnBreadcrumb(entry models.BreadcrumbEntry) (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer p.reset()
	if !entry.AcceptsDrop() {
		return Intent{}, false
	}
	return p.moveIntent(entry.ID)
}

// DragOverBackground reports whether the background accepts the drag: only
// files dragged in from outside while no internal drag is active.
func (p *Protocol) DragOverBackground(payload ExternalPayload) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.external(payload)
}

// DropOnBackground turns an external file drop into an upload. Internal
// drags dropped on the background do nothing. The gesture ends either way.
func (p *Protocol) DropOnBackground(payload ExternalPayload) (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer p.reset()
	if !p.external(payload) {
		return Intent{}, false
	}
	return Intent{Kind: IntentUpload, Paths: append([]string{}, payload.Paths...)}, true
}

// DragEnd cancels the gesture.
func (p *Protocol) DragEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// Snapshot returns the current drag and hover state.
func (p *Protocol) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s State
	switch {
	case p.last == KindFile && p.activeFile != nil:
		f := *p.activeFile
		s.Session = &Session{Kind: KindFile, File: &f}
	case p.activeFolder != nil:
		f := *p.activeFolder
		s.Session = &Session{Kind: KindFolder, Folder: &f}
	case p.activeFile != nil:
		f := *p.activeFile
		s.Session = &Session{Kind: KindFile, File: &f}
	}
	s.HoverFolderID = copyID(p.hoverFolderID)
	s.HoverBreadcrumbID = copyID(p.hoverBreadcrumbID)
	return s
}

// accepts applies the drop rules to a target id without side effects.
func (p *Protocol) accepts(targetID int64) bool {
	if p.activeFile != nil {
		return true
	}
	return p.activeFolder != nil && p.activeFolder.ID != targetID
}

func (p *Protocol) moveIntent(targetID int64) (Intent, bool) {
	switch {
	case p.activeFile != nil:
		f := *p.activeFile
		return Intent{Kind: IntentMoveFile, File: &f, TargetFolderID: targetID}, true
	case p.activeFolder != nil && p.activeFolder.ID != targetID:
		f := *p.activeFolder
		return Intent{Kind: IntentMoveFolder, Folder: &f, TargetFolderID: targetID}, true
	default:
		return Intent{}, false
	}
}

func (p *Protocol) external(payload ExternalPayload) bool {
	return p.activeFile == nil && p.activeFolder == nil && payload.HasFiles()
}

func (p *Protocol) reset() {
	p.activeFile = nil
	p.activeFolder = nil
	p.last = ""
	p.clearHover()
}

func (p *Protocol) clearHover() {
	p.hoverFolderID = nil
	p.hoverBreadcrumbID = nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
