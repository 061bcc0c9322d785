package models

import "fmt"

// Sentinel ids shown in the breadcrumb trail for virtual views.
const (
	RecycleBinID    int64 = -1
	SearchResultsID int64 = -1
	RecentFilesID   int64 = -2

	// DownloadsPendingID marks the Downloads entry before the server has named
	// the real folder.
	DownloadsPendingID int64 = 0
)

// Display names of the virtual views.
const (
	RecycleBinName    = "Recycle Bin"
	RecentFilesName   = "Recent Files"
	SearchResultsName = "Search Results"
	DownloadsName     = "Downloads"
)

// LocationKind tags a Location.
type LocationKind string

const (
	LocationFolder     LocationKind = "folder"
	LocationRecent     LocationKind = "recent"
	LocationRecycleBin LocationKind = "recycle-bin"
	LocationSearch     LocationKind = "search"
	LocationDownloads  LocationKind = "downloads"
)

// ViewMode is how the current listing was produced.
type ViewMode string

const (
	ViewStandard   ViewMode = "standard"
	ViewRecent     ViewMode = "recent"
	ViewRecycleBin ViewMode = "recycle-bin"
	ViewSearch     ViewMode = "search"
)

// Location identifies what the user is looking at. Exactly one of the kind's
// payload fields is meaningful: FolderID for folders, Query for search.
type Location struct {
	Kind     LocationKind `json:"kind"`
	FolderID int64        `json:"folderId,omitempty"`
	Query    string       `json:"query,omitempty"`
}

func FolderLocation(id int64) Location  { return Location{Kind: LocationFolder, FolderID: id} }
func RecentLocation() Location          { return Location{Kind: LocationRecent} }
func RecycleBinLocation() Location      { return Location{Kind: LocationRecycleBin} }
func SearchLocation(q string) Location  { return Location{Kind: LocationSearch, Query: q} }
func DownloadsLocation() Location       { return Location{Kind: LocationDownloads} }
func RootLocation() Location            { return FolderLocation(RootFolderID) }

// ViewMode maps the location onto the displayed view mode.
func (l Location) ViewMode() ViewMode {
	switch l.Kind {
	case LocationRecent:
		return ViewRecent
	case LocationRecycleBin:
		return ViewRecycleBin
	case LocationSearch:
		return ViewSearch
	default:
		return ViewStandard
	}
}

// IsFolder reports whether the location is a real, addressable folder.
func (l Location) IsFolder() bool {
	return l.Kind == LocationFolder && l.FolderID > 0
}

// SentinelID is the id shown in the trail for this location.
func (l Location) SentinelID() int64 {
	switch l.Kind {
	case LocationFolder:
		return l.FolderID
	case LocationRecent:
		return RecentFilesID
	case LocationRecycleBin:
		return RecycleBinID
	case LocationSearch:
		return SearchResultsID
	default:
		return DownloadsPendingID
	}
}

// Valid reports whether the location is well formed.
func (l Location) Valid() bool {
	switch l.Kind {
	case LocationFolder:
		return l.FolderID > 0
	case LocationSearch:
		return l.Query != ""
	case LocationRecent, LocationRecycleBin, LocationDownloads:
		return true
	default:
		return false
	}
}

func (l Location) String() string {
	switch l.Kind {
	case LocationFolder:
		return fmt.Sprintf("folder(%d)", l.FolderID)
	case LocationSearch:
		return fmt.Sprintf("search(%q)", l.Query)
	default:
		return string(l.Kind)
	}
}

// BreadcrumbEntry is one step of the path from Root to the current location.
type BreadcrumbEntry struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

func RootEntry() BreadcrumbEntry {
	return BreadcrumbEntry{ID: RootFolderID, Name: RootName, Location: RootLocation()}
}

func FolderEntry(id int64, name string) BreadcrumbEntry {
	return BreadcrumbEntry{ID: id, Name: name, Location: FolderLocation(id)}
}

func RecycleBinEntry() BreadcrumbEntry {
	return BreadcrumbEntry{ID: RecycleBinID, Name: RecycleBinName, Location: RecycleBinLocation()}
}

func RecentFilesEntry() BreadcrumbEntry {
	return BreadcrumbEntry{ID: RecentFilesID, Name: RecentFilesName, Location: RecentLocation()}
}

func SearchResultsEntry(q string) BreadcrumbEntry {
	return BreadcrumbEntry{ID: SearchResultsID, Name: SearchResultsName, Location: SearchLocation(q)}
}

func DownloadsEntry() BreadcrumbEntry {
	return BreadcrumbEntry{ID: DownloadsPendingID, Name: DownloadsName, Location: DownloadsLocation()}
}

// AcceptsDrop reports whether items can be moved onto this entry.
func (e BreadcrumbEntry) AcceptsDrop() bool {
	return e.Location.IsFolder()
}

// Trail is the ordered breadcrumb path. The first entry is always Root.
type Trail []BreadcrumbEntry

// NewTrail returns a trail holding only Root, followed by extra entries.
func NewTrail(extra ...BreadcrumbEntry) Trail {
	t := make(Trail, 0, 1+len(extra))
	t = append(t, RootEntry())
	return append(t, extra...)
}

// Clone returns an independent copy.
func (t Trail) Clone() Trail {
	out := make(Trail, len(t))
	copy(out, t)
	return out
}

// Tail returns the last entry.
func (t Trail) Tail() BreadcrumbEntry {
	if len(t) == 0 {
		return RootEntry()
	}
	return t[len(t)-1]
}

// Valid reports whether the trail starts at Root and every entry is well formed.
func (t Trail) Valid() bool {
	if len(t) == 0 || t[0] != RootEntry() {
		return false
	}
	for _, e := range t[1:] {
		if !e.Location.Valid() {
			return false
		}
	}
	return true
}
