package mutation_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/models"
	"github.com/TheMichaelB/filedeck/internal/mutation"
	"github.com/TheMichaelB/filedeck/internal/navigation"
	"github.com/TheMichaelB/filedeck/test/testutil"
)

type fakeNav struct {
	mu      sync.Mutex
	state   models.NavigationState
	reloads int
	loading []bool
}

func newFakeNav(loc models.Location, trail models.Trail) *fakeNav {
	return &fakeNav{state: models.NavigationState{
		CurrentFolderID: trail.Tail().ID,
		Location:        loc,
		ViewMode:        loc.ViewMode(),
		Trail:           trail,
	}}
}

func (n *fakeNav) Snapshot() models.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *fakeNav) SetLoading(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.IsLoading = v
	n.loading = append(n.loading, v)
}

func (n *fakeNav) Reload(ctx context.Context) *navigation.Load {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reloads++
	n.state.IsLoading = false
	return nil
}

func (n *fakeNav) reloadCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reloads
}

type fakeBackend struct {
	mu         sync.Mutex
	calls      []string
	errs       map[string]error
	uploadErrs map[string]error
	uploadWait time.Duration
	inFlight   int32
	maxFlight  int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{errs: map[string]error{}, uploadErrs: map[string]error{}}
}

func (b *fakeBackend) record(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	for prefix, err := range b.errs {
		if strings.HasPrefix(call, prefix) {
			return err
		}
	}
	return nil
}

func (b *fakeBackend) callList() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.calls...)
}

func (b *fakeBackend) CreateFolder(ctx context.Context, name string, parentID int64) (models.Folder, error) {
	if err := b.record(fmt.Sprintf("create %s in %d", name, parentID)); err != nil {
		return models.Folder{}, err
	}
	return models.Folder{ID: 99, Name: name, ParentFolderID: &parentID}, nil
}

func (b *fakeBackend) RenameFolder(ctx context.Context, id int64, name string) error {
	return b.record(fmt.Sprintf("rename %d %s", id, name))
}

func (b *fakeBackend) MoveFolder(ctx context.Context, id, target int64) error {
	return b.record(fmt.Sprintf("move-folder %d %d", id, target))
}

func (b *fakeBackend) DeleteFolder(ctx context.Context, id int64) error {
	return b.record(fmt.Sprintf("delete-folder %d", id))
}

func (b *fakeBackend) RestoreFolder(ctx context.Context, id int64) error {
	return b.record(fmt.Sprintf("restore-folder %d", id))
}

func (b *fakeBackend) PurgeFolder(ctx context.Context, id int64) error {
	return b.record(fmt.Sprintf("purge-folder %d", id))
}

func (b *fakeBackend) MoveFile(ctx context.Context, id, target int64) error {
	return b.record(fmt.Sprintf("move-file %d %d", id, target))
}

func (b *fakeBackend) DeleteFile(ctx context.Context, id int64) error {
	return b.record(fmt.Sprintf("delete-file %d", id))
}

func (b *fakeBackend) RestoreFile(ctx context.Context, id int64) error {
	return b.record(fmt.Sprintf("restore-file %d", id))
}

func (b *fakeBackend) PurgeFile(ctx context.Context, id int64) error {
	return b.record(fmt.Sprintf("purge-file %d", id))
}

func (b *fakeBackend) Upload(ctx context.Context, folderID int64, name string, content io.Reader) (models.FileMetadata, error) {
	n := atomic.AddInt32(&b.inFlight, 1)
	defer atomic.AddInt32(&b.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&b.maxFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&b.maxFlight, peak, n) {
			break
		}
	}

	data, _ := io.ReadAll(content)
	if b.uploadWait > 0 {
		time.Sleep(b.uploadWait)
	}

	_ = b.record(fmt.Sprintf("upload %s to %d", name, folderID))
	b.mu.Lock()
	err := b.uploadErrs[name]
	b.mu.Unlock()
	if err != nil {
		return models.FileMetadata{}, err
	}
	return models.FileMetadata{Name: name, Size: int64(len(data))}, nil
}

func inFolder(id int64, name string) *fakeNav {
	if id == models.RootFolderID {
		return newFakeNav(models.RootLocation(), models.NewTrail())
	}
	return newFakeNav(models.FolderLocation(id), models.NewTrail(models.FolderEntry(id, name)))
}

func setup(nav *fakeNav) (*mutation.Coordinator, *fakeBackend, *testutil.NoticeRecorder) {
	backend := newFakeBackend()
	notices := testutil.NewNoticeRecorder()
	c := mutation.New(backend, nav, mutation.Options{
		MaxConcurrentUploads: 2,
		Notifier:             notices,
	})
	return c, backend, notices
}

func source(name, content string) mutation.UploadSource {
	return mutation.UploadSource{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

var docs = models.Folder{ID: 2, Name: "Docs"}

func TestMutationsReloadOnSuccess(t *testing.T) {
	file := models.FileMetadata{ID: 10, Name: "report.pdf"}

	tests := []struct {
		name string
		call func(context.Context, *mutation.Coordinator) error
		want string
	}{
		{"rename", func(ctx context.Context, c *mutation.Coordinator) error { return c.RenameFolder(ctx, docs, "Documents") }, "rename 2 Documents"},
		{"move folder", func(ctx context.Context, c *mutation.Coordinator) error { return c.MoveFolder(ctx, docs, 3) }, "move-folder 2 3"},
		{"delete folder", func(ctx context.Context, c *mutation.Coordinator) error { return c.DeleteFolder(ctx, docs) }, "delete-folder 2"},
		{"restore folder", func(ctx context.Context, c *mutation.Coordinator) error { return c.RestoreFolder(ctx, docs) }, "restore-folder 2"},
		{"purge folder", func(ctx context.Context, c *mutation.Coordinator) error { return c.PurgeFolder(ctx, docs) }, "purge-folder 2"},
		{"move file", func(ctx context.Context, c *mutation.Coordinator) error { return c.MoveFile(ctx, file, 3) }, "move-file 10 3"},
		{"delete file", func(ctx context.Context, c *mutation.Coordinator) error { return c.DeleteFile(ctx, file) }, "delete-file 10"},
		{"restore file", func(ctx context.Context, c *mutation.Coordinator) error { return c.RestoreFile(ctx, file) }, "restore-file 10"},
		{"purge file", func(ctx context.Context, c *mutation.Coordinator) error { return c.PurgeFile(ctx, file) }, "purge-file 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := inFolder(1, "Root")
			c, backend, notices := setup(nav)

			require.NoError(t, tt.call(context.Background(), c))

			assert.Equal(t, []string{tt.want}, backend.callList())
			assert.Equal(t, 1, nav.reloadCount())
			assert.False(t, nav.Snapshot().IsLoading)
			assert.Empty(t, notices.Notices())
		})
	}
}

func TestMutationFailureRaisesNotice(t *testing.T) {
	nav := inFolder(1, "Root")
	c, backend, notices := setup(nav)
	backend.errs["rename"] = &models.APIError{StatusCode: 409, Message: "A folder with that name already exists"}
	trailBefore := nav.Snapshot().Trail

	err := c.RenameFolder(context.Background(), docs, "Photos")

	require.Error(t, err)
	var mErr *models.MutationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, mutation.OpRenameFolder, mErr.Op)
	assert.Equal(t, int64(2), mErr.TargetID)

	assert.Zero(t, nav.reloadCount())
	assert.False(t, nav.Snapshot().IsLoading)
	assert.Equal(t, trailBefore, nav.Snapshot().Trail)

	got := notices.Notices()
	require.Len(t, got, 1)
	assert.Equal(t, models.NoticeError, got[0].Kind)
	assert.Equal(t, "Failed to rename folder: A folder with that name already exists", got[0].Message)
}

func TestMutationFailureGenericMessage(t *testing.T) {
	nav := inFolder(1, "Root")
	c, backend, notices := setup(nav)
	backend.errs["delete-folder"] = errors.New("connection reset")

	require.Error(t, c.DeleteFolder(context.Background(), docs))

	assert.Equal(t, []string{"Failed to delete folder: connection reset"}, notices.Messages())
}

func TestRenameNoop(t *testing.T) {
	for _, name := range []string{"", "   ", "Docs", "  Docs  "} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			nav := inFolder(1, "Root")
			c, backend, _ := setup(nav)

			err := c.RenameFolder(context.Background(), docs, name)

			assert.ErrorIs(t, err, models.ErrNoChange)
			assert.Empty(t, backend.callList())
			assert.Zero(t, nav.reloadCount())
			assert.Empty(t, nav.loading)
		})
	}
}

func TestRenameTrimsName(t *testing.T) {
	nav := inFolder(1, "Root")
	c, backend, _ := setup(nav)

	require.NoError(t, c.RenameFolder(context.Background(), docs, "  Archive "))
	assert.Equal(t, []string{"rename 2 Archive"}, backend.callList())
}

func TestRenameCaseChangeIsSent(t *testing.T) {
	nav := inFolder(1, "Root")
	c, backend, _ := setup(nav)

	require.NoError(t, c.RenameFolder(context.Background(), docs, "DOCS"))
	assert.Equal(t, []string{"rename 2 DOCS"}, backend.callList())

	// Composed and decomposed forms are the same name.
	cafe := models.Folder{ID: 7, Name: "Caf\u00e9"}
	err := c.RenameFolder(context.Background(), cafe, "Cafe\u0301")
	assert.ErrorIs(t, err, models.ErrNoChange)
}

func TestCreateFolder(t *testing.T) {
	nav := inFolder(5, "Projects")
	c, backend, _ := setup(nav)

	created, err := c.CreateFolder(context.Background(), " Drafts ")

	require.NoError(t, err)
	assert.Equal(t, "Drafts", created.Name)
	assert.Equal(t, []string{"create Drafts in 5"}, backend.callList())
	assert.Equal(t, 1, nav.reloadCount())

	_, err = c.CreateFolder(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrEmptyName)
}

func TestCreateAndUploadRejectedOutsideFolders(t *testing.T) {
	views := map[string]*fakeNav{
		"recycle bin":       newFakeNav(models.RecycleBinLocation(), models.NewTrail(models.RecycleBinEntry())),
		"recent":            newFakeNav(models.RecentLocation(), models.NewTrail(models.RecentFilesEntry())),
		"search":            newFakeNav(models.SearchLocation("x"), models.NewTrail(models.SearchResultsEntry("x"))),
		"downloads pending": newFakeNav(models.DownloadsLocation(), models.NewTrail(models.DownloadsEntry())),
	}

	for name, nav := range views {
		t.Run(name, func(t *testing.T) {
			c, backend, _ := setup(nav)

			_, err := c.CreateFolder(context.Background(), "New")
			assert.ErrorIs(t, err, models.ErrInvalidTarget)

			_, err = c.Upload(context.Background(), []mutation.UploadSource{source("a.txt", "a")})
			assert.ErrorIs(t, err, models.ErrInvalidTarget)

			assert.Empty(t, backend.callList())
			assert.Zero(t, nav.reloadCount())
		})
	}
}

func TestMoveGuards(t *testing.T) {
	nav := inFolder(1, "Root")
	c, backend, _ := setup(nav)
	ctx := context.Background()

	assert.ErrorIs(t, c.MoveFolder(ctx, docs, docs.ID), models.ErrInvalidTarget)
	assert.ErrorIs(t, c.MoveFolder(ctx, docs, models.RecycleBinID), models.ErrInvalidTarget)
	assert.ErrorIs(t, c.MoveFile(ctx, models.FileMetadata{ID: 4}, 0), models.ErrInvalidTarget)
	assert.Empty(t, backend.callList())
}

func TestUploadAllSucceed(t *testing.T) {
	nav := inFolder(7, "Inbox")
	c, backend, notices := setup(nav)
	backend.uploadWait = 10 * time.Millisecond

	result, err := c.Upload(context.Background(), []mutation.UploadSource{
		source("a.txt", "aaa"),
		source("b.txt", "bb"),
		source("c.txt", "c"),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Completed)
	assert.Len(t, result.Succeeded, 3)
	assert.Empty(t, result.Failed)
	assert.True(t, result.Reloaded)
	assert.NotEmpty(t, result.BatchID)

	assert.Equal(t, 1, nav.reloadCount())
	assert.False(t, nav.Snapshot().IsLoading)
	assert.Empty(t, notices.Notices())
	assert.LessOrEqual(t, atomic.LoadInt32(&backend.maxFlight), int32(2))
	assert.ElementsMatch(t, []string{"upload a.txt to 7", "upload b.txt to 7", "upload c.txt to 7"}, backend.callList())
}

func TestUploadPartialFailure(t *testing.T) {
	nav := inFolder(7, "Inbox")
	c, backend, notices := setup(nav)
	backend.uploadErrs["b.txt"] = &models.APIError{StatusCode: 413, Message: "Payload too large"}

	result, err := c.Upload(context.Background(), []mutation.UploadSource{
		source("a.txt", "aaa"),
		source("b.txt", "bb"),
		source("c.txt", "c"),
	})

	require.Error(t, err)
	assert.Equal(t, 3, result.Completed)
	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b.txt", result.Failed[0].Name)
	assert.False(t, result.Reloaded)

	assert.Zero(t, nav.reloadCount())
	assert.False(t, nav.Snapshot().IsLoading)

	got := notices.Notices()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Payload too large")
}

func TestUploadSizeLimitAndOpenErrors(t *testing.T) {
	nav := inFolder(7, "Inbox")
	backend := newFakeBackend()
	c := mutation.New(backend, nav, mutation.Options{MaxFileSize: 4})

	broken := mutation.UploadSource{Name: "broken.bin", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("permission denied")
	}}

	result, err := c.Upload(context.Background(), []mutation.UploadSource{
		source("big.txt", "0123456789"),
		broken,
		source("ok.txt", "ok"),
	})

	require.Error(t, err)
	assert.Equal(t, 3, result.Completed)
	assert.Len(t, result.Failed, 2)
	assert.Zero(t, nav.reloadCount())
	assert.Equal(t, []string{"upload ok.txt to 7"}, backend.callList())

	var tooLarge bool
	for _, f := range result.Failed {
		if errors.Is(f.Err, mutation.ErrFileTooLarge) {
			tooLarge = true
		}
	}
	assert.True(t, tooLarge)
}

func TestUploadEmptyBatch(t *testing.T) {
	nav := inFolder(7, "Inbox")
	c, backend, _ := setup(nav)

	result, err := c.Upload(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, result.Completed)
	assert.Empty(t, backend.callList())
	assert.Zero(t, nav.reloadCount())
	assert.False(t, nav.Snapshot().IsLoading)
}
