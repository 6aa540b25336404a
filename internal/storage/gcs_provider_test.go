package storage_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/dream-symbol-crawler/internal/storage"
)

const testBucket = "test-bucket"

func newTestGCSProvider(t *testing.T, handler http.Handler) *storage.GCSProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := gcs.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &storage.GCSProvider{Client: client, BucketName: testBucket}
}

func TestGCSProviderSave(t *testing.T) {
	t.Parallel()

	objectName := "snapshots/symbols_updated.json"
	payload := []byte(`[{"id":"auto_9460370b_water"}]`)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, fmt.Sprintf("/upload/storage/v1/b/%s/o", testBucket))
		assert.Equal(t, objectName, r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), string(payload))
		assert.Contains(t, string(body), "application/json")

		fmt.Fprintln(w, `{ "name": "`+objectName+`" }`)
	})

	provider := newTestGCSProvider(t, handler)
	require.NoError(t, provider.Save(context.Background(), objectName, payload))
}

func TestGCSProviderSaveError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	provider := newTestGCSProvider(t, handler)
	err := provider.Save(context.Background(), "snap.json", []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snap.json")
}

func TestNewGCSProvider(t *testing.T) {
	t.Parallel()

	var attrsCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/b/missing-bucket") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		attrsCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name":%q}`, testBucket)
	}))
	t.Cleanup(server.Close)

	opts := []option.ClientOption{option.WithEndpoint(server.URL), option.WithoutAuthentication()}

	provider, err := storage.NewGCSProvider(context.Background(), testBucket, nil, opts...)
	require.NoError(t, err)
	assert.Equal(t, testBucket, provider.BucketName)
	assert.Equal(t, int32(1), attrsCalls.Load())
	require.NoError(t, provider.Close())

	_, err = storage.NewGCSProvider(context.Background(), "missing-bucket", nil, opts...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get GCS bucket")

	_, err = storage.NewGCSProvider(context.Background(), "", nil, opts...)
	require.Error(t, err)
}

func TestNoOpAndMockProviders(t *testing.T) {
	t.Parallel()

	var noop storage.NoOpProvider
	require.NoError(t, noop.Save(context.Background(), "x", nil))

	m := new(storage.MockProvider)
	m.On("Save", mock.Anything, "x", []byte("data")).Return(nil).Once()
	require.NoError(t, m.Save(context.Background(), "x", []byte("data")))
	m.AssertExpectations(t)
}
