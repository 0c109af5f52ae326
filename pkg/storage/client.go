package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatvault/internal/models"
)

// ErrBucketNotFound indicates the configured bucket does not exist. The
// caller uses it to mark storage as degraded instead of failing an import.
var ErrBucketNotFound = errors.New("storage bucket not found")

// Client uploads objects to the storage backend and resolves public URLs.
type Client interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	PublicURL(objectPath string) string
}

type storageClient struct {
	baseURL string
	bucket  string
	apiKey  string
	client  *http.Client
}

type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewClient creates an object storage client from configuration.
func NewClient(cfg models.StorageConfig) Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &storageClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		bucket:  cfg.Bucket,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Upload stores an object and returns its public URL.
func (c *storageClient) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrBucketNotFound, c.bucket)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && (errResp.Error != "" || errResp.Message != "") {
			return "", fmt.Errorf("upload failed with status %d: %s%s", resp.StatusCode, errResp.Error, errResp.Message)
		}
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	return c.PublicURL(objectPath), nil
}

// PublicURL returns the durable public URL for an object path.
func (c *storageClient) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, objectPath)
}
