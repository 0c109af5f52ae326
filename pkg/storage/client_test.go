package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) Client {
	return NewClient(models.StorageConfig{
		BaseURL: serverURL,
		Bucket:  "media",
		APIKey:  "test-key",
	})
}

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	url, err := client.Upload(context.Background(), "family_chat/photo.jpg", []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "/object/media/family_chat/photo.jpg", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "image/jpeg", gotContentType)
	assert.Equal(t, []byte{0xFF, 0xD8}, gotBody)
	assert.Equal(t, server.URL+"/object/public/media/family_chat/photo.jpg", url)
}

func TestUploadBucketNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Upload(context.Background(), "g/photo.jpg", []byte{0x01}, "image/jpeg")
	assert.ErrorIs(t, err, ErrBucketNotFound)
}

func TestUploadServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"storage exploded"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Upload(context.Background(), "g/photo.jpg", []byte{0x01}, "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage exploded")
	assert.NotErrorIs(t, err, ErrBucketNotFound)
}

func TestUploadContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL)
	_, err := client.Upload(ctx, "g/photo.jpg", []byte{0x01}, "image/jpeg")
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	client := NewClient(models.StorageConfig{
		BaseURL: "https://storage.example.com/",
		Bucket:  "media",
	})
	assert.Equal(t,
		"https://storage.example.com/object/public/media/g/photo.jpg",
		client.PublicURL("g/photo.jpg"))
}
