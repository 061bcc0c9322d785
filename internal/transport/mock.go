package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// MockTransport provides a mock implementation for testing.
type MockTransport struct {
	mu sync.Mutex

	// Response configuration, keyed by "METHOD path"
	Responses    map[string]interface{}
	Errors       map[string]error
	DownloadData map[string][]byte
	Changes      []models.ChangeNotice

	// Handler, when set, answers every JSON/multipart request.
	Handler func(ctx context.Context, req Request) (interface{}, error)

	// Request tracking
	Requests []Request

	// State
	token  string
	closed bool
}

// Request records a call made through the mock.
type Request struct {
	Method   string
	Path     string
	Payload  interface{}
	Fields   map[string]string
	FileName string
	FileData []byte
}

// NewMockTransport creates a mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Responses:    make(map[string]interface{}),
		Errors:       make(map[string]error),
		DownloadData: make(map[string][]byte),
	}
}

func key(method, path string) string {
	return method + " " + strings.TrimLeft(path, "/")
}

// GetJSON mocks HTTP GET.
func (m *MockTransport) GetJSON(ctx context.Context, path string) (interface{}, error) {
	return m.handle(ctx, Request{Method: "GET", Path: path})
}

// PostJSON mocks HTTP POST.
func (m *MockTransport) PostJSON(ctx context.Context, path string, payload interface{}) (interface{}, error) {
	return m.handle(ctx, Request{Method: "POST", Path: path, Payload: payload})
}

// PutJSON mocks HTTP PUT.
func (m *MockTransport) PutJSON(ctx context.Context, path string, payload interface{}) (interface{}, error) {
	return m.handle(ctx, Request{Method: "PUT", Path: path, Payload: payload})
}

// DeleteJSON mocks HTTP DELETE.
func (m *MockTransport) DeleteJSON(ctx context.Context, path string) (interface{}, error) {
	return m.handle(ctx, Request{Method: "DELETE", Path: path})
}

// PostMultipart mocks a multipart upload.
func (m *MockTransport) PostMultipart(ctx context.Context, path string, form MultipartForm) (interface{}, error) {
	req := Request{Method: "POST", Path: path, Fields: form.Fields, FileName: form.FileName}
	if form.File != nil {
		data, err := io.ReadAll(form.File)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		req.FileData = data
	}
	return m.handle(ctx, req)
}

// Download mocks content download.
func (m *MockTransport) Download(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, Request{Method: "GET", Path: path})

	if err, ok := m.Errors[key("GET", path)]; ok {
		return nil, err
	}
	if data, ok := m.DownloadData[strings.TrimLeft(path, "/")]; ok {
		return data, nil
	}
	return nil, &models.APIError{Code: models.ErrCodeNotFound, StatusCode: 404, Message: "File not found"}
}

// StreamChanges replays the configured change notices, then closes.
func (m *MockTransport) StreamChanges(ctx context.Context, url string) (<-chan models.ChangeNotice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors[key("WS", url)]; ok {
		return nil, err
	}

	ch := make(chan models.ChangeNotice, len(m.Changes))
	for _, n := range m.Changes {
		ch <- n
	}
	close(ch)
	return ch, nil
}

func (m *MockTransport) handle(ctx context.Context, req Request) (interface{}, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	handler := m.Handler
	m.mu.Unlock()

	if handler != nil {
		return handler(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(req.Method, req.Path)
	if err, ok := m.Errors[k]; ok {
		return nil, err
	}

	resp, ok := m.Responses[k]
	if !ok {
		return nil, fmt.Errorf("no mock response for %s", k)
	}
	return normalizeResponse(resp), nil
}

// normalizeResponse converts typed values into the generic JSON shapes the
// real transport returns.
func normalizeResponse(resp interface{}) interface{} {
	switch resp.(type) {
	case nil, map[string]interface{}, []interface{}, string:
		return resp
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil
	}
	var result interface{}
	_ = json.Unmarshal(data, &result)
	return result
}

// SetToken mocks token setting.
func (m *MockTransport) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// GetToken returns the current token.
func (m *MockTransport) GetToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Close mocks connection closing.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Helper methods for test setup

// AddResponse sets the response for a method and path.
func (m *MockTransport) AddResponse(method, path string, response interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[key(method, path)] = response
}

// AddError sets an error for a method and path.
func (m *MockTransport) AddError(method, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[key(method, path)] = err
}

// AddDownload sets content returned for a download path.
func (m *MockTransport) AddDownload(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadData[strings.TrimLeft(path, "/")] = data
}

// AddChange queues a change notice for StreamChanges.
func (m *MockTransport) AddChange(n models.ChangeNotice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Changes = append(m.Changes, n)
}

// RequestsFor returns recorded requests matching method and path.
func (m *MockTransport) RequestsFor(method, path string) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Request
	k := key(method, path)
	for _, r := range m.Requests {
		if key(r.Method, r.Path) == k {
			out = append(out, r)
		}
	}
	return out
}

// Reset clears recorded requests.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = nil
}
