package models

import "time"

// ChangeType is the kind of server-side change announced on the change feed.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
	ChangeMoved    ChangeType = "moved"
	ChangeRestored ChangeType = "restored"
	ChangePurged   ChangeType = "purged"
)

// ChangeNotice is one message from the change feed. FolderID is the folder
// whose listing changed; TargetFolderID is set for moves.
type ChangeNotice struct {
	Type           ChangeType `json:"type"`
	FolderID       int64      `json:"folderId"`
	TargetFolderID int64      `json:"targetFolderId,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Touches reports whether the notice affects the listing of folderID.
func (n ChangeNotice) Touches(folderID int64) bool {
	return n.FolderID == folderID || (n.TargetFolderID != 0 && n.TargetFolderID == folderID)
}

// AffectsRecycleBin reports whether the recycle bin listing changes.
func (n ChangeNotice) AffectsRecycleBin() bool {
	switch n.Type {
	case ChangeDeleted, ChangeRestored, ChangePurged:
		return true
	}
	return false
}
