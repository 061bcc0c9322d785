package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// APIPrefix is where the fake backend mounts the filesystem endpoints.
const APIPrefix = "/api/filesystem"

// ServerFolder is a folder held by the fake backend.
type ServerFolder struct {
	ID       int64
	Name     string
	ParentID int64
	Deleted  bool
}

// ServerFile is a file held by the fake backend.
type ServerFile struct {
	ID       int64
	Name     string
	FolderID int64
	Content  []byte
	Deleted  bool
}

type failure struct {
	status  int
	message string
}

// TestServer is an in-memory file-storage backend for client tests.
type TestServer struct {
	*httptest.Server

	mu          sync.Mutex
	folders     map[int64]*ServerFolder
	files       map[int64]*ServerFile
	nextID      int64
	downloadsID int64
	recent      []int64
	token       string
	failures    map[string]failure
	delays      map[string]time.Duration
	requests    []string

	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]bool
}

// NewTestServer starts a backend holding only the root folder.
func NewTestServer() *TestServer {
	ts := &TestServer{
		folders:  map[int64]*ServerFolder{models.RootFolderID: {ID: models.RootFolderID, Name: models.RootName}},
		files:    make(map[int64]*ServerFile),
		nextID:   100,
		failures: make(map[string]failure),
		delays:   make(map[string]time.Duration),
		conns:    make(map[*websocket.Conn]bool),
	}

	mux := http.NewServeMux()
	p := APIPrefix
	mux.HandleFunc("GET "+p+"/folder/{id}", ts.handleGetFolder)
	mux.HandleFunc("POST "+p+"/folder", ts.handleCreateFolder)
	mux.HandleFunc("PUT "+p+"/folder/{id}/rename", ts.handleRenameFolder)
	mux.HandleFunc("PUT "+p+"/folder/{id}/move", ts.handleMoveFolder)
	mux.HandleFunc("PUT "+p+"/folder/{id}/restore", ts.handleRestoreFolder)
	mux.HandleFunc("DELETE "+p+"/folder/{id}", ts.handleDeleteFolder)
	mux.HandleFunc("DELETE "+p+"/folder/{id}/purge", ts.handlePurgeFolder)
	mux.HandleFunc("PUT "+p+"/file/{id}/move", ts.handleMoveFile)
	mux.HandleFunc("PUT "+p+"/file/{id}/restore", ts.handleRestoreFile)
	mux.HandleFunc("DELETE "+p+"/file/{id}", ts.handleDeleteFile)
	mux.HandleFunc("DELETE "+p+"/file/{id}/purge", ts.handlePurgeFile)
	mux.HandleFunc("POST "+p+"/upload", ts.handleUpload)
	mux.HandleFunc("GET "+p+"/download/{id}", ts.handleDownload)
	mux.HandleFunc("GET "+p+"/recycle-bin", ts.handleRecycleBin)
	mux.HandleFunc("GET "+p+"/recent", ts.handleRecent)
	mux.HandleFunc("GET "+p+"/downloads", ts.handleDownloads)
	mux.HandleFunc("GET "+p+"/search", ts.handleSearch)
	mux.HandleFunc("GET /changes", ts.handleChanges)

	ts.Server = httptest.NewServer(ts.middleware(mux))
	return ts
}

// BaseURL returns the API base URL for config.APIConfig.
func (ts *TestServer) BaseURL() string {
	return ts.URL + APIPrefix
}

// ChangesURL returns the WebSocket change feed URL.
func (ts *TestServer) ChangesURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/changes"
}

// Close shuts down feed connections and the server.
func (ts *TestServer) Close() {
	ts.mu.Lock()
	for conn := range ts.conns {
		_ = conn.Close()
	}
	ts.conns = make(map[*websocket.Conn]bool)
	ts.mu.Unlock()

	ts.Server.Close()
}

// RequireToken makes every API request need "Bearer token".
func (ts *TestServer) RequireToken(token string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = token
}

// AddFolder creates a folder with a fixed id.
func (ts *TestServer) AddFolder(id, parentID int64, name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.folders[id] = &ServerFolder{ID: id, Name: name, ParentID: parentID}
}

// AddFile creates a file with a fixed id.
func (ts *TestServer) AddFile(id, folderID int64, name string, content []byte) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.files[id] = &ServerFile{ID: id, Name: name, FolderID: folderID, Content: content}
}

// SetDownloadsFolder names the folder returned by GET downloads.
func (ts *TestServer) SetDownloadsFolder(id int64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.downloadsID = id
}

// SetRecent sets the recent-files list, most recent first.
func (ts *TestServer) SetRecent(ids ...int64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.recent = append([]int64(nil), ids...)
}

// Fail makes "METHOD path" answer with status and message until cleared.
// path is relative to APIPrefix, without query.
func (ts *TestServer) Fail(method, path string, status int, message string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.failures[method+" "+path] = failure{status: status, message: message}
}

// ClearFailures removes all injected failures.
func (ts *TestServer) ClearFailures() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.failures = make(map[string]failure)
}

// Delay holds "METHOD path" responses for d.
func (ts *TestServer) Delay(method, path string, d time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.delays[method+" "+path] = d
}

// Requests returns "METHOD path" for every API request received.
func (ts *TestServer) Requests() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.requests...)
}

// CountRequests counts received requests equal to "METHOD path".
func (ts *TestServer) CountRequests(method, path string) int {
	want := method + " " + path
	n := 0
	for _, r := range ts.Requests() {
		if r == want {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (ts *TestServer) ResetRequests() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.requests = nil
}

// Folder returns a copy of a stored folder.
func (ts *TestServer) Folder(id int64) (ServerFolder, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	f, ok := ts.folders[id]
	if !ok {
		return ServerFolder{}, false
	}
	return *f, true
}

// File returns a copy of a stored file.
func (ts *TestServer) File(id int64) (ServerFile, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	f, ok := ts.files[id]
	if !ok {
		return ServerFile{}, false
	}
	return *f, true
}

// Publish sends a change notice to every connected feed client.
func (ts *TestServer) Publish(n models.ChangeNotice) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.publishLocked(n)
}

// FeedClients returns the number of connected feed clients.
func (ts *TestServer) FeedClients() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.conns)
}

func (ts *TestServer) publishLocked(n models.ChangeNotice) {
	msg := map[string]interface{}{"type": string(n.Type), "folderId": n.FolderID}
	if n.TargetFolderID != 0 {
		msg["targetFolderId"] = n.TargetFolderID
	}
	for conn := range ts.conns {
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			delete(ts.conns, conn)
		}
	}
}

func (ts *TestServer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, APIPrefix+"/") {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, APIPrefix+"/")

		ts.mu.Lock()
		ts.requests = append(ts.requests, key)
		token := ts.token
		fail, failing := ts.failures[key]
		delay := ts.delays[key]
		ts.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			writeError(w, fail.status, fail.message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handlers

func (ts *TestServer) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.liveFolder(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Folder not found")
		return
	}
	writeJSON(w, http.StatusOK, ts.folderContents(folder))
}

func (ts *TestServer) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		ParentFolderID int64  `json:"parentFolderId"`
	}
	if err := decodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Folder name is required")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	parent, ok := ts.folders[req.ParentFolderID]
	if !ok || parent.Deleted {
		writeError(w, http.StatusNotFound, "Parent folder not found")
		return
	}
	if ts.siblingNamed(parent.ID, req.Name, 0) {
		writeError(w, http.StatusConflict, "A folder with that name already exists")
		return
	}

	ts.nextID++
	folder := &ServerFolder{ID: ts.nextID, Name: req.Name, ParentID: parent.ID}
	ts.folders[folder.ID] = folder
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeCreated, FolderID: parent.ID})

	writeJSON(w, http.StatusCreated, folderJSON(folder))
}

func (ts *TestServer) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Folder name is required")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.liveFolder(r.PathValue("id"))
	if !ok || folder.ID == models.RootFolderID {
		writeError(w, http.StatusNotFound, "Folder not found")
		return
	}
	if ts.siblingNamed(folder.ParentID, req.Name, folder.ID) {
		writeError(w, http.StatusConflict, "A folder with that name already exists")
		return
	}

	folder.Name = req.Name
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeUpdated, FolderID: folder.ParentID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleMoveFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetFolderID int64 `json:"targetFolderId"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.liveFolder(r.PathValue("id"))
	if !ok || folder.ID == models.RootFolderID {
		writeError(w, http.StatusNotFound, "Folder not found")
		return
	}
	target, ok := ts.folders[req.TargetFolderID]
	if !ok || target.Deleted {
		writeError(w, http.StatusNotFound, "Target folder not found")
		return
	}
	if ts.isDescendant(target.ID, folder.ID) {
		writeError(w, http.StatusBadRequest, "Cannot move a folder into itself")
		return
	}

	from := folder.ParentID
	folder.ParentID = target.ID
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeMoved, FolderID: from, TargetFolderID: target.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleRestoreFolder(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.folders[parseID(r.PathValue("id"))]
	if !ok || !folder.Deleted {
		writeError(w, http.StatusNotFound, "Folder not found in recycle bin")
		return
	}
	folder.Deleted = false
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeRestored, FolderID: folder.ParentID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.liveFolder(r.PathValue("id"))
	if !ok || folder.ID == models.RootFolderID {
		writeError(w, http.StatusNotFound, "Folder not found")
		return
	}
	folder.Deleted = true
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeDeleted, FolderID: folder.ParentID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handlePurgeFolder(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.folders[parseID(r.PathValue("id"))]
	if !ok || folder.ID == models.RootFolderID {
		writeError(w, http.StatusNotFound, "Folder not found")
		return
	}
	ts.purgeFolderLocked(folder.ID)
	ts.publishLocked(models.ChangeNotice{Type: models.ChangePurged, FolderID: folder.ParentID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleMoveFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetFolderID int64 `json:"targetFolderId"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	file, ok := ts.liveFile(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	target, ok := ts.folders[req.TargetFolderID]
	if !ok || target.Deleted {
		writeError(w, http.StatusNotFound, "Target folder not found")
		return
	}

	from := file.FolderID
	file.FolderID = target.ID
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeMoved, FolderID: from, TargetFolderID: target.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleRestoreFile(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	file, ok := ts.files[parseID(r.PathValue("id"))]
	if !ok || !file.Deleted {
		writeError(w, http.StatusNotFound, "File not found in recycle bin")
		return
	}
	file.Deleted = false
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeRestored, FolderID: file.FolderID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	file, ok := ts.liveFile(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	file.Deleted = true
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeDeleted, FolderID: file.FolderID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handlePurgeFile(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	file, ok := ts.files[parseID(r.PathValue("id"))]
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	delete(ts.files, file.ID)
	ts.publishLocked(models.ChangeNotice{Type: models.ChangePurged, FolderID: file.FolderID})
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	folderID := parseID(r.FormValue("folderId"))

	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.folders[folderID]
	if !ok || folder.Deleted {
		writeError(w, http.StatusNotFound, "Folder not found")
		return
	}

	ts.nextID++
	file := &ServerFile{ID: ts.nextID, Name: header.Filename, FolderID: folder.ID, Content: content}
	ts.files[file.ID] = file
	ts.recent = append([]int64{file.ID}, ts.recent...)
	ts.publishLocked(models.ChangeNotice{Type: models.ChangeCreated, FolderID: folder.ID})

	writeJSON(w, http.StatusCreated, fileJSON(file))
}

func (ts *TestServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	file, ok := ts.liveFile(r.PathValue("id"))
	var content []byte
	if ok {
		content = append([]byte(nil), file.Content...)
	}
	ts.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

func (ts *TestServer) handleRecycleBin(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	folders := []interface{}{}
	for _, f := range ts.sortedFolders() {
		if f.Deleted {
			folders = append(folders, folderJSON(f))
		}
	}
	files := []interface{}{}
	for _, f := range ts.sortedFiles() {
		if f.Deleted {
			files = append(files, fileJSON(f))
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders, "files": files})
}

func (ts *TestServer) handleRecent(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	files := []interface{}{}
	for _, id := range ts.recent {
		if f, ok := ts.files[id]; ok && !f.Deleted {
			files = append(files, fileJSON(f))
		}
	}
	writeJSON(w, http.StatusOK, files)
}

func (ts *TestServer) handleDownloads(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	folder, ok := ts.folders[ts.downloadsID]
	if !ok || folder.Deleted {
		writeError(w, http.StatusNotFound, "Downloads folder not found")
		return
	}
	writeJSON(w, http.StatusOK, ts.folderContents(folder))
}

func (ts *TestServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))

	ts.mu.Lock()
	defer ts.mu.Unlock()

	folders := []interface{}{}
	files := []interface{}{}
	if query != "" {
		for _, f := range ts.sortedFolders() {
			if !f.Deleted && f.ID != models.RootFolderID && strings.Contains(strings.ToLower(f.Name), query) {
				folders = append(folders, folderJSON(f))
			}
		}
		for _, f := range ts.sortedFiles() {
			if !f.Deleted && strings.Contains(strings.ToLower(f.Name), query) {
				files = append(files, fileJSON(f))
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders, "files": files})
}

func (ts *TestServer) handleChanges(w http.ResponseWriter, r *http.Request) {
	conn, err := ts.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ts.mu.Lock()
	ts.conns[conn] = true
	ts.mu.Unlock()

	// Drain client frames so pings are answered and closes are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				ts.mu.Lock()
				delete(ts.conns, conn)
				ts.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

// Helpers (callers hold ts.mu)

func (ts *TestServer) liveFolder(rawID string) (*ServerFolder, bool) {
	f, ok := ts.folders[parseID(rawID)]
	if !ok || f.Deleted {
		return nil, false
	}
	return f, true
}

func (ts *TestServer) liveFile(rawID string) (*ServerFile, bool) {
	f, ok := ts.files[parseID(rawID)]
	if !ok || f.Deleted {
		return nil, false
	}
	return f, true
}

func (ts *TestServer) siblingNamed(parentID int64, name string, except int64) bool {
	for _, f := range ts.folders {
		if f.ID != except && !f.Deleted && f.ParentID == parentID && f.ID != models.RootFolderID &&
			strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// isDescendant reports whether candidate is ancestor or lies beneath it.
func (ts *TestServer) isDescendant(candidate, ancestor int64) bool {
	for id := candidate; id != 0; {
		if id == ancestor {
			return true
		}
		f, ok := ts.folders[id]
		if !ok || id == models.RootFolderID {
			return false
		}
		id = f.ParentID
	}
	return false
}

func (ts *TestServer) purgeFolderLocked(id int64) {
	for _, f := range ts.folders {
		if f.ParentID == id && f.ID != models.RootFolderID {
			ts.purgeFolderLocked(f.ID)
		}
	}
	for fid, f := range ts.files {
		if f.FolderID == id {
			delete(ts.files, fid)
		}
	}
	delete(ts.folders, id)
}

func (ts *TestServer) sortedFolders() []*ServerFolder {
	out := make([]*ServerFolder, 0, len(ts.folders))
	for _, f := range ts.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (ts *TestServer) sortedFiles() []*ServerFile {
	out := make([]*ServerFile, 0, len(ts.files))
	for _, f := range ts.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// folderContents answers in the reference-preserving shape some serializers
// produce, so the client exercises its normalizer end to end.
func (ts *TestServer) folderContents(folder *ServerFolder) map[string]interface{} {
	subFolders := []interface{}{}
	for _, f := range ts.sortedFolders() {
		if f.ParentID == folder.ID && !f.Deleted && f.ID != models.RootFolderID {
			subFolders = append(subFolders, folderJSON(f))
		}
	}
	files := []interface{}{}
	for _, f := range ts.sortedFiles() {
		if f.FolderID == folder.ID && !f.Deleted {
			files = append(files, fileJSON(f))
		}
	}

	out := folderJSON(folder)
	out["$id"] = "1"
	out["subFolders"] = map[string]interface{}{"$values": subFolders}
	out["files"] = map[string]interface{}{"$values": files}
	return out
}

func folderJSON(f *ServerFolder) map[string]interface{} {
	out := map[string]interface{}{"id": f.ID, "name": f.Name}
	if f.ID != models.RootFolderID {
		out["parentFolderId"] = f.ParentID
	}
	return out
}

func fileJSON(f *ServerFile) map[string]interface{} {
	return map[string]interface{}{
		"id":        f.ID,
		"name":      f.Name,
		"size":      len(f.Content),
		"extension": filepath.Ext(f.Name),
	}
}

func parseID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
