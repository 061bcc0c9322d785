package models

import "time"

// NavigationState is a point-in-time copy of the navigator's state.
type NavigationState struct {
	CurrentFolderID   int64          `json:"currentFolderId"`
	CurrentFolderName string         `json:"currentFolderName"`
	Location          Location       `json:"location"`
	ViewMode          ViewMode       `json:"viewMode"`
	Trail             Trail          `json:"breadcrumbTrail"`
	Folders           []Folder       `json:"folders"`
	Files             []FileMetadata `json:"files"`
	IsLoading         bool           `json:"isLoading"`
	SearchQuery       string         `json:"searchQuery,omitempty"`
	LastError         string         `json:"lastError,omitempty"`
}

// Session is the navigation state worth keeping between runs.
type Session struct {
	Trail       Trail     `json:"trail"`
	Location    Location  `json:"location"`
	SearchQuery string    `json:"search_query,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoticeKind classifies a Notice.
type NoticeKind string

const (
	NoticeError NoticeKind = "error"
	NoticeInfo  NoticeKind = "info"
)

// Notice is a user-facing, non-fatal notification.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Op      string     `json:"op"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
	Time    time.Time  `json:"time"`
}
