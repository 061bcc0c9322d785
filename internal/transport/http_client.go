package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/TheMichaelB/filedeck/internal/config"
	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
)

// HTTPClient handles HTTP communication with the API.
type HTTPClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *events.Logger

	tokenMu sync.RWMutex
	token   string

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
}

// NewHTTPClient creates an HTTP client.
func NewHTTPClient(cfg *config.APIConfig, logger *events.Logger) *HTTPClient {
	// Create transport with HTTP/2 support
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		logger.WithError(err).Warn("Failed to configure HTTP/2")
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		retryDelay: 500 * time.Millisecond,
		logger:     logger.WithField("component", "http_client"),
	}
}

// SetToken sets the authentication token.
func (c *HTTPClient) SetToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
}

// GetToken returns the current authentication token.
func (c *HTTPClient) GetToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

// GetJSON sends a GET request and decodes the JSON response.
func (c *HTTPClient) GetJSON(ctx context.Context, path string) (interface{}, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return c.decode(data), nil
}

// PostJSON sends a JSON POST request.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, payload interface{}) (interface{}, error) {
	return c.sendJSON(ctx, http.MethodPost, path, payload)
}

// PutJSON sends a JSON PUT request.
func (c *HTTPClient) PutJSON(ctx context.Context, path string, payload interface{}) (interface{}, error) {
	return c.sendJSON(ctx, http.MethodPut, path, payload)
}

// DeleteJSON sends a DELETE request.
func (c *HTTPClient) DeleteJSON(ctx context.Context, path string) (interface{}, error) {
	data, err := c.do(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return nil, err
	}
	return c.decode(data), nil
}

// PostMultipart uploads a single file with form fields.
func (c *HTTPClient) PostMultipart(ctx context.Context, path string, form MultipartForm) (interface{}, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range form.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}

	field := form.FileField
	if field == "" {
		field = "file"
	}
	part, err := writer.CreateFormFile(field, form.FileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if form.File != nil {
		if _, err := io.Copy(part, form.File); err != nil {
			return nil, fmt.Errorf("copy file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, path, body.Bytes(), writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return c.decode(data), nil
}

// Download fetches raw content.
func (c *HTTPClient) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"path": path,
		"size": len(data),
	}).Debug("Downloaded content")

	return data, nil
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, path string, payload interface{}) (interface{}, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
	}

	data, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return nil, err
	}
	return c.decode(data), nil
}

// do executes a request with retry and returns the body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	url := c.url(path)
	requestID := events.GetRequestID(ctx)

	// Listing requests carry a logger tagged with their request and folder.
	logger := c.logger
	if scoped, ok := events.LoggerFrom(ctx); ok {
		logger = scoped.WithField("component", "http_client")
	}

	logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    url,
		"size":   len(body),
	}).Debug("Sending request")

	var respBody []byte
	err := c.retry(ctx, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Accept", "application/json, */*")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if token := c.GetToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			err = fmt.Errorf("execute request: %w", err)
			if !idempotent(method) {
				// The server may have acted before the connection failed.
				return &permanentError{err: err}
			}
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode,
			"size":   len(data),
		}).Debug("Received response")

		if c.isRetryable(method, resp.StatusCode) {
			return &retryableError{err: parseAPIError(resp.StatusCode, data, requestID)}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return parseAPIError(resp.StatusCode, data, requestID)
		}

		respBody = data
		return nil
	})

	if err != nil {
		return nil, err
	}
	return respBody, nil
}

// decode parses a JSON body. Empty or malformed bodies decode to nil; shape
// problems are the normalizer's concern.
func (c *HTTPClient) decode(data []byte) interface{} {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var result interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		c.logger.WithError(err).Warn("Response is not JSON")
		return nil
	}
	return result
}

func (c *HTTPClient) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// parseAPIError builds an APIError from an error response. The message comes
// from the JSON error/message/title field, else the body text.
func parseAPIError(status int, body []byte, requestID string) *models.APIError {
	apiErr := &models.APIError{
		Code:       models.CodeForStatus(status),
		StatusCode: status,
		RequestID:  requestID,
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message", "title", "detail"} {
			if s, ok := payload[key].(string); ok && s != "" {
				apiErr.Message = s
				break
			}
		}
		if code, ok := payload["code"].(string); ok && code != "" {
			apiErr.Code = code
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// retryableError marks a response worth retrying.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// permanentError marks a failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// retry executes a function with exponential backoff.
func (c *HTTPClient) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
			}).Debug("Retrying request")

			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !c.isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// idempotent reports whether a request can be repeated safely.
func idempotent(method string) bool {
	return method != http.MethodPost
}

// isRetryable checks if an HTTP status code is retryable for method. A POST
// is repeated only when the server turned it away without processing it.
func (c *HTTPClient) isRetryable(method string, status int) bool {
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		return true
	}
	return idempotent(method) && status >= 500 && status < 600
}

// isRetryableError checks if an error is retryable. Network errors are;
// cancellation and definitive API errors are not.
func (c *HTTPClient) isRetryableError(err error) bool {
	var re *retryableError
	if errors.As(err, &re) {
		return true
	}

	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *models.APIError
	return !errors.As(err, &apiErr)
}
