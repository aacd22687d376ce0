package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type Backend string

const (
	BackendNone   Backend = "none"
	BackendGCS    Backend = "gcs"
	BackendS3     Backend = "s3"
	BackendMemory Backend = "memory"
)

// BlobStore writes opaque objects into a single bucket.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	Name() string
}

type Config struct {
	Backend Backend
	Bucket  string

	GCSCredentialsFile string
	GCSEmulatorHost    string

	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// New returns the store selected by cfg.Backend, or nil for BackendNone.
func New(ctx context.Context, log *logger.Logger, cfg Config) (BlobStore, error) {
	backend := Backend(strings.ToLower(strings.TrimSpace(string(cfg.Backend))))
	switch backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendGCS:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("missing ARCHIVE_BUCKET for backend %q", backend)
		}
		return NewGCSStore(ctx, log, cfg)
	case BackendS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("missing ARCHIVE_BUCKET for backend %q", backend)
		}
		return NewS3Store(ctx, log, cfg)
	default:
		return nil, fmt.Errorf("unsupported ARCHIVE_BACKEND %q (allowed: none, gcs, s3, memory)", cfg.Backend)
	}
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (m *MemoryStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Name() string { return string(BackendMemory) }

// Get returns a copy of the stored object.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
