package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/TheMichaelB/filedeck/internal/config"
	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// Transport combines HTTP and WebSocket functionality.
type Transport interface {
	// HTTP methods. JSON responses come back as generic decoded values
	// (map[string]interface{}, []interface{}, nil) for the listing normalizer.
	GetJSON(ctx context.Context, path string) (interface{}, error)
	PostJSON(ctx context.Context, path string, payload interface{}) (interface{}, error)
	PutJSON(ctx context.Context, path string, payload interface{}) (interface{}, error)
	DeleteJSON(ctx context.Context, path string) (interface{}, error)
	PostMultipart(ctx context.Context, path string, form MultipartForm) (interface{}, error)
	Download(ctx context.Context, path string) ([]byte, error)

	// WebSocket change feed
	StreamChanges(ctx context.Context, url string) (<-chan models.ChangeNotice, error)

	// Authentication
	SetToken(token string)
	GetToken() string

	// Lifecycle
	Close() error
}

// MultipartForm is a single-file multipart upload.
type MultipartForm struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
}

// DefaultTransport implements the Transport interface.
type DefaultTransport struct {
	httpClient *HTTPClient
	wsClient   *WSClient
	logger     *events.Logger
}

// NewTransport creates a transport instance.
func NewTransport(cfg *config.APIConfig, logger *events.Logger) Transport {
	return &DefaultTransport{
		httpClient: NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetJSON forwards to HTTP client.
func (t *DefaultTransport) GetJSON(ctx context.Context, path string) (interface{}, error) {
	return t.httpClient.GetJSON(ctx, path)
}

// PostJSON forwards to HTTP client.
func (t *DefaultTransport) PostJSON(ctx context.Context, path string, payload interface{}) (interface{}, error) {
	return t.httpClient.PostJSON(ctx, path, payload)
}

// PutJSON forwards to HTTP client.
func (t *DefaultTransport) PutJSON(ctx context.Context, path string, payload interface{}) (interface{}, error) {
	return t.httpClient.PutJSON(ctx, path, payload)
}

// DeleteJSON forwards to HTTP client.
func (t *DefaultTransport) DeleteJSON(ctx context.Context, path string) (interface{}, error) {
	return t.httpClient.DeleteJSON(ctx, path)
}

// PostMultipart forwards to HTTP client.
func (t *DefaultTransport) PostMultipart(ctx context.Context, path string, form MultipartForm) (interface{}, error) {
	return t.httpClient.PostMultipart(ctx, path, form)
}

// Download forwards to HTTP client.
func (t *DefaultTransport) Download(ctx context.Context, path string) ([]byte, error) {
	return t.httpClient.Download(ctx, path)
}

// StreamChanges opens the change feed WebSocket.
func (t *DefaultTransport) StreamChanges(ctx context.Context, url string) (<-chan models.ChangeNotice, error) {
	if t.wsClient != nil {
		_ = t.wsClient.Close()
	}
	t.wsClient = NewWSClient(url, t.httpClient.GetToken(), t.logger)

	if err := t.wsClient.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}

	// Monitor errors in background
	go func() {
		for err := range t.wsClient.Errors() {
			t.logger.WithError(err).Error("Change feed error")
		}
	}()

	return t.wsClient.Messages(), nil
}

// SetToken sets the auth token.
func (t *DefaultTransport) SetToken(token string) {
	t.httpClient.SetToken(token)
}

// GetToken returns the current auth token.
func (t *DefaultTransport) GetToken() string {
	return t.httpClient.GetToken()
}

// Close closes all connections.
func (t *DefaultTransport) Close() error {
	if t.wsClient != nil {
		return t.wsClient.Close()
	}
	return nil
}
