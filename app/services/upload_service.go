package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// UploadService forwards product images to the upstream upload endpoint and
// keeps an audit copy on the staging disk.
type UploadService struct {
	pool *workerpool.Pool
}

func NewUploadService(pool *workerpool.Pool) *UploadService {
	return &UploadService{pool: pool}
}

// Upload sends the image as multipart/form-data under the "image" field and
// returns the public path the upstream assigned. Any failure is returned to
// the caller; upload errors are never dropped.
func (s *UploadService) Upload(ctx context.Context, token, filename string, file io.Reader) (path string, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.Uploads.WithLabelValues(outcome).Inc()
	}()
	defer metrics.ObserveUpstream("upload.create", &err, time.Now())

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	resp, err := httpclient.Post(apiURL("/api/upload")).
		Bearer(token).
		Multipart("image", filename, bytes.NewReader(data)).
		Timeout(config.APITimeout()).
		WithContext(ctx).
		Send()
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", upstreamErr(resp)
	}

	// The upstream answers with the stored path as a bare (sometimes
	// JSON-quoted) string, e.g. /uploads/image-1623.jpg.
	path = strings.TrimSpace(resp.Text())
	var quoted string
	if json.Unmarshal(resp.Raw, &quoted) == nil && quoted != "" {
		path = quoted
	}

	s.stage(filename, data)
	return path, nil
}

// stage archives the uploaded bytes to the staging disk in the background.
// A full pool drops the copy; the upload itself already succeeded.
func (s *UploadService) stage(filename string, data []byte) {
	if s.pool == nil {
		return
	}

	key := "staging/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	err := s.pool.Submit(func() {
		if err := storage.Put(key, data); err != nil {
			logger.Warn("upload: staging copy failed", "key", key, "error", err)
		}
	})
	if err != nil {
		logger.Warn("upload: staging skipped", "key", key, "error", err)
	}
}
