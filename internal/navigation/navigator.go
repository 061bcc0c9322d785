// Package navigation tracks where the user is: a real folder or one of the
// virtual views, the breadcrumb trail leading there, and the listing shown.
//
// Every location change commits the trail synchronously and then issues one
// listing request. Each request carries a generation number; a response is
// applied only while its generation is still the latest, and starting a new
// request cancels the previous one.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/listing"
	"github.com/TheMichaelB/filedeck/internal/metrics"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// DefaultRequestTimeout bounds a single listing request.
const DefaultRequestTimeout = 30 * time.Second

var (
	// ErrSuperseded is reported by Load.Wait when a newer navigation replaced
	// the request before it resolved.
	ErrSuperseded = errors.New("listing superseded by a newer navigation")

	// ErrInvalidSession is returned by Restore for a malformed trail or location.
	ErrInvalidSession = errors.New("invalid navigation session")
)

// Lister fetches listings for each kind of location.
type Lister interface {
	FolderContents(ctx context.Context, folderID int64) (listing.Listing, error)
	RecycleBin(ctx context.Context) (listing.Listing, error)
	Recent(ctx context.Context) (listing.Listing, error)
	Downloads(ctx context.Context) (listing.Listing, error)
	Search(ctx context.Context, query string) (listing.Listing, error)
}

// Options configures a Navigator.
type Options struct {
	RequestTimeout time.Duration
	Notifier       events.Notifier
	Logger         *events.Logger
}

// Navigator owns the navigation state.
type Navigator struct {
	lister   Lister
	notifier events.Notifier
	logger   *events.Logger
	base     *events.Logger
	timeout  time.Duration

	mu     sync.Mutex
	state  models.NavigationState
	gen    uint64
	cancel context.CancelFunc
	// current is the latest listing request; listing is set until it resolves.
	current *Load
	listing bool
}

// New creates a navigator positioned at Root with an empty listing.
func New(lister Lister, opts Options) *Navigator {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = events.NewNopLogger()
	}

	root := models.RootLocation()
	return &Navigator{
		lister:   lister,
		notifier: opts.Notifier,
		logger:   opts.Logger.WithField("component", "navigator"),
		base:     opts.Logger,
		timeout:  opts.RequestTimeout,
		state: models.NavigationState{
			CurrentFolderID:   models.RootFolderID,
			CurrentFolderName: models.RootName,
			Location:          root,
			ViewMode:          root.ViewMode(),
			Trail:             models.NewTrail(),
			Folders:           []models.Folder{},
			Files:             []models.FileMetadata{},
		},
	}
}

// Open enters folder. Items in the recycle bin cannot be opened.
func (n *Navigator) Open(ctx context.Context, folder models.Folder) (*Load, error) {
	if folder.ID <= 0 {
		return nil, fmt.Errorf("open folder %d: %w", folder.ID, models.ErrInvalidTarget)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state.ViewMode == models.ViewRecycleBin {
		return nil, models.ErrRecycleBinReadOnly
	}

	trail := append(n.state.Trail.Clone(), models.FolderEntry(folder.ID, folder.Name))
	return n.begin(ctx, trail, ""), nil
}

// NavigateHome resets the trail to Root.
func (n *Navigator) NavigateHome(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, models.NewTrail(), "")
}

// NavigateUp drops the last trail entry. At Root it does nothing.
func (n *Navigator) NavigateUp(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.state.Trail) <= 1 {
		return nil
	}
	trail := n.state.Trail.Clone()
	return n.begin(ctx, trail[:len(trail)-1], "")
}

// NavigateToBreadcrumb truncates the trail after index i. Indexes outside
// the trail, and the current tail, do nothing.
func (n *Navigator) NavigateToBreadcrumb(ctx context.Context, i int) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()

	if i < 0 || i >= len(n.state.Trail)-1 {
		return nil
	}
	trail := n.state.Trail.Clone()
	return n.begin(ctx, trail[:i+1], "")
}

// LoadRecycleBin shows soft-deleted items.
func (n *Navigator) LoadRecycleBin(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, models.NewTrail(models.RecycleBinEntry()), "")
}

// LoadRecentFiles shows recently touched files.
func (n *Navigator) LoadRecentFiles(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, models.NewTrail(models.RecentFilesEntry()), "")
}

// LoadDownloads shows the Downloads folder. Its id is learned from the response.
func (n *Navigator) LoadDownloads(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, models.NewTrail(models.DownloadsEntry()), "")
}

// PerformSearch shows search results for query. A blank query does nothing.
func (n *Navigator) PerformSearch(ctx context.Context, query string) *Load {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, models.NewTrail(models.SearchResultsEntry(query)), "")
}

// ClearSearch leaves the search view for Root. Outside the search view it
// reloads the current location.
func (n *Navigator) ClearSearch(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state.ViewMode == models.ViewSearch {
		return n.begin(ctx, models.NewTrail(), "")
	}
	return n.begin(ctx, n.state.Trail.Clone(), n.state.CurrentFolderName)
}

// Reload re-fetches the current location without touching the trail.
func (n *Navigator) Reload(ctx context.Context) *Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, n.state.Trail.Clone(), n.state.CurrentFolderName)
}

// Restore resumes a saved session.
func (n *Navigator) Restore(ctx context.Context, session models.Session) (*Load, error) {
	if !session.Trail.Valid() || session.Trail.Tail().Location != session.Location {
		return nil, ErrInvalidSession
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(ctx, session.Trail.Clone(), ""), nil
}

// begin commits trail and its tail location, then starts the listing
// request. fallbackName is used when a folder response carries no name.
// Callers hold n.mu.
func (n *Navigator) begin(ctx context.Context, trail models.Trail, fallbackName string) *Load {
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++

	tail := trail.Tail()
	loc := tail.Location
	if fallbackName == "" {
		fallbackName = tail.Name
	}

	n.state.Trail = trail
	n.state.Location = loc
	n.state.ViewMode = loc.ViewMode()
	n.state.CurrentFolderID = tail.ID
	n.state.CurrentFolderName = tail.Name
	n.state.SearchQuery = loc.Query
	n.state.IsLoading = true
	n.state.LastError = ""

	reqCtx, cancel := context.WithTimeout(ctx, n.timeout)
	n.cancel = cancel

	// Lower layers log through the request's logger.
	requestID := events.NewRequestID()
	reqCtx = events.WithLogger(reqCtx, n.base)
	reqCtx = events.WithRequestID(reqCtx, requestID)
	if loc.IsFolder() {
		reqCtx = events.WithFolderID(reqCtx, loc.FolderID)
	}

	load := &Load{gen: n.gen, Location: loc, done: make(chan struct{})}
	n.current = load
	n.listing = true

	n.logger.WithFields(map[string]interface{}{
		"location":   loc.String(),
		"generation": load.gen,
		"request_id": requestID,
	}).Debug("Loading listing")

	go n.fetch(reqCtx, cancel, load, fallbackName)
	return load
}

func (n *Navigator) fetch(ctx context.Context, cancel context.CancelFunc, load *Load, fallbackName string) {
	start := time.Now()
	res, err := n.list(ctx, load.Location)
	cancel()

	n.mu.Lock()
	if load.gen != n.gen {
		n.mu.Unlock()
		metrics.RecordStaleResponse()
		n.logger.WithFields(map[string]interface{}{
			"location":   load.Location.String(),
			"generation": load.gen,
		}).Debug("Discarding stale listing")
		load.finish(ErrSuperseded)
		return
	}
	metrics.RecordListing(string(load.Location.Kind), time.Since(start), err)

	if err != nil {
		n.applyError(err)
	} else {
		n.apply(load.Location, res, fallbackName)
	}
	n.mu.Unlock()

	if err != nil {
		n.logger.WithError(err).WithField("location", load.Location.String()).Warn("Listing failed")
		n.notify(events.ErrorNotice("load", err))
	}
	load.finish(err)
}

func (n *Navigator) list(ctx context.Context, loc models.Location) (listing.Listing, error) {
	switch loc.Kind {
	case models.LocationFolder:
		return n.lister.FolderContents(ctx, loc.FolderID)
	case models.LocationRecycleBin:
		return n.lister.RecycleBin(ctx)
	case models.LocationRecent:
		return n.lister.Recent(ctx)
	case models.LocationDownloads:
		return n.lister.Downloads(ctx)
	case models.LocationSearch:
		return n.lister.Search(ctx, loc.Query)
	default:
		return listing.Listing{}, fmt.Errorf("unknown location %q", loc.Kind)
	}
}

// apply installs a successful listing. Callers hold n.mu.
func (n *Navigator) apply(loc models.Location, res listing.Listing, fallbackName string) {
	n.state.Folders = res.Folders
	n.state.Files = res.Files
	n.state.IsLoading = false
	n.listing = false

	last := len(n.state.Trail) - 1
	switch loc.Kind {
	case models.LocationFolder:
		name := firstNonEmpty(res.Name, fallbackName, models.RootName)
		n.state.CurrentFolderName = name
		if last > 0 {
			n.state.Trail[last].Name = name
		}

	case models.LocationDownloads:
		// The shortcut resolves to the real folder once the server names it.
		if res.HasID && res.ID > 0 {
			name := firstNonEmpty(res.Name, models.DownloadsName)
			entry := models.FolderEntry(res.ID, name)
			n.state.Trail[last] = entry
			n.state.Location = entry.Location
			n.state.CurrentFolderID = entry.ID
			n.state.CurrentFolderName = name
		}
	}
}

// applyError resets the listing at the attempted location. Callers hold n.mu.
func (n *Navigator) applyError(err error) {
	n.state.Folders = []models.Folder{}
	n.state.Files = []models.FileMetadata{}
	n.state.IsLoading = false
	n.listing = false
	n.state.LastError = models.UserMessage(err)
}

// SetLoading marks an operation outside the navigator as in flight. Clearing
// it leaves IsLoading set while a listing request is still pending.
func (n *Navigator) SetLoading(loading bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.IsLoading = loading || n.listing
}

// Current returns the most recent listing request, or nil before the first.
func (n *Navigator) Current() *Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Snapshot returns a copy of the current state.
func (n *Navigator) Snapshot() models.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := n.state
	s.Trail = n.state.Trail.Clone()
	s.Folders = append([]models.Folder{}, n.state.Folders...)
	s.Files = append([]models.FileMetadata{}, n.state.Files...)
	return s
}

// Session returns the part of the state worth persisting.
func (n *Navigator) Session() models.Session {
	n.mu.Lock()
	defer n.mu.Unlock()

	return models.Session{
		Trail:       n.state.Trail.Clone(),
		Location:    n.state.Location,
		SearchQuery: n.state.SearchQuery,
		UpdatedAt:   time.Now(),
	}
}

// CanOpen reports whether folders in the listing can be entered.
func (n *Navigator) CanOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.ViewMode != models.ViewRecycleBin
}

// CanPreview reports whether files in the listing can be previewed.
func (n *Navigator) CanPreview() bool {
	return n.CanOpen()
}

// CanUpload reports whether the current location accepts uploads.
func (n *Navigator) CanUpload() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.acceptsNewItems()
}

// CanCreateFolder reports whether a sub-folder can be created here.
func (n *Navigator) CanCreateFolder() bool {
	return n.CanUpload()
}

func (n *Navigator) acceptsNewItems() bool {
	return n.state.ViewMode != models.ViewRecycleBin && n.state.CurrentFolderID > 0
}

func (n *Navigator) notify(notice models.Notice) {
	if n.notifier != nil {
		n.notifier.Notify(notice)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
