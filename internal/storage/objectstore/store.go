package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store abstracts S3-compatible object storage for onboarding documents.
type Store interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// DocumentKey builds the canonical key for an uploaded onboarding document.
// A fresh UUID segment keeps re-uploads of the same field from colliding.
func DocumentKey(workflow, userID, field, filename string) (string, error) {
	workflow = strings.TrimSpace(workflow)
	userID = strings.TrimSpace(userID)
	field = strings.TrimSpace(field)
	filename = sanitizeFilename(filename)
	if workflow == "" || userID == "" || field == "" {
		return "", fmt.Errorf("workflow, user id and field are required")
	}
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	return path.Join("documents", workflow, userID, field, uuid.NewString(), filename), nil
}

func sanitizeFilename(raw string) string {
	raw = path.Base(strings.TrimSpace(raw))
	if raw == "." || raw == "/" {
		return ""
	}
	return raw
}
