package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/dozendreams/dozendreams-server/internal/errors"
)

const storageBasePath = "/storage/v1/object"

// StorageClient uploads objects into one public bucket of the backend's
// file store.
type StorageClient struct {
	client *Client
	bucket string
}

// NewStorageClient wraps a Client for uploads into bucket.
func NewStorageClient(client *Client, bucket string) *StorageClient {
	return &StorageClient{client: client, bucket: bucket}
}

// Upload implements Uploader. path is relative to the bucket root; the
// returned URL is publicly fetchable without credentials.
func (s *StorageClient) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	path = strings.TrimLeft(path, "/")
	u := s.client.baseURL + storageBasePath + "/" + s.bucket + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", errors.Internal("creating upload request").WithCause(err)
	}
	req.Header.Set("apikey", s.client.apiKey)
	if s.client.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.client.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+s.client.apiKey)
	}
	req.Header.Set("Content-Type", contentType)
	// Re-uploading the same path replaces the object.
	req.Header.Set("x-upsert", "true")

	resp, err := s.client.http.Do(req)
	if err != nil {
		return "", errors.Upstream("file store unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", statusError(resp.StatusCode, body)
	}

	return s.PublicURL(path), nil
}

// PublicURL returns the unauthenticated fetch URL for an object path.
func (s *StorageClient) PublicURL(path string) string {
	return s.client.baseURL + storageBasePath + "/public/" + s.bucket + "/" + strings.TrimLeft(path, "/")
}
