package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// memDisk records Put calls and signals when one lands.
type memDisk struct {
	mu    sync.Mutex
	files map[string][]byte
	wrote chan string
}

func newMemDisk() *memDisk {
	return &memDisk{files: map[string][]byte{}, wrote: make(chan string, 4)}
}

func (d *memDisk) Put(path string, content []byte) error {
	d.mu.Lock()
	d.files[path] = content
	d.mu.Unlock()
	d.wrote <- path
	return nil
}

func (d *memDisk) PutStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.Put(path, data)
}

func (d *memDisk) Get(path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.files[path], nil
}

func (d *memDisk) Exists(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[path]
	return ok
}

func (d *memDisk) Size(path string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.files[path])), nil
}

func (d *memDisk) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

func (d *memDisk) URL(path string) string { return "mem://" + path }

func TestUploadForwardsMultipartAndReturnsPath(t *testing.T) {
	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "POST", Path: "/api/upload", Body: "/uploads/image-1623.jpg"},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	path, err := NewUploadService(nil).Upload(context.Background(), "tok", "saree.jpg", strings.NewReader("imagebytes"))
	require.NoError(t, err)

	assert.Equal(t, "/uploads/image-1623.jpg", path)
	assert.Equal(t, []string{"POST /api/upload"}, mt.Calls())
}

func TestUploadUnwrapsQuotedPath(t *testing.T) {
	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "POST", Path: "/api/upload", Body: `"/uploads/image-1623.jpg"`},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	path, err := NewUploadService(nil).Upload(context.Background(), "tok", "saree.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/image-1623.jpg", path)
}

func TestUploadSurfacesUpstreamError(t *testing.T) {
	mt := testkit.NewMockTransport(
		testkit.Stub{
			Method: "POST", Path: "/api/upload",
			Status: http.StatusBadRequest,
			Body:   map[string]string{"message": "Images only!"},
		},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	_, err := NewUploadService(nil).Upload(context.Background(), "tok", "notes.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, "Images only!", err.Error())
}

func TestUploadStagesCopyInBackground(t *testing.T) {
	disk := newMemDisk()
	storage.RegisterDisk("testmem", disk)
	storage.SetDefault("testmem")

	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "POST", Path: "/api/upload", Body: "/uploads/image-1.jpg"},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	pool := workerpool.New(1)
	defer pool.Shutdown()

	_, err := NewUploadService(pool).Upload(context.Background(), "tok", "saree.JPG", strings.NewReader("imagebytes"))
	require.NoError(t, err)

	select {
	case key := <-disk.wrote:
		assert.True(t, strings.HasPrefix(key, "staging/"))
		assert.True(t, strings.HasSuffix(key, ".jpg"), "extension is lowercased: %s", key)
		data, _ := disk.Get(key)
		assert.Equal(t, []byte("imagebytes"), data)
	case <-time.After(time.Second):
		t.Fatal("staging copy never landed")
	}
}
