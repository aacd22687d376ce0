package services

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/yungbote/tabula-backend/internal/platform/logger"
	"github.com/yungbote/tabula-backend/internal/platform/objectstore"
)

const archiveContentType = "application/zstd"

// Archiver keeps a zstd-compressed copy of every accepted upload.
type Archiver interface {
	Archive(ctx context.Context, filename string, raw []byte) (string, error)
	Remove(ctx context.Context, key string) error
}

type archiver struct {
	log     *logger.Logger
	store   objectstore.BlobStore
	prefix  string
	encoder *zstd.Encoder
	now     func() time.Time
}

// NewArchiver returns nil when store is nil.
func NewArchiver(log *logger.Logger, store objectstore.BlobStore, prefix string) (Archiver, error) {
	if store == nil {
		return nil, nil
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "datasets"
	}
	return &archiver{
		log:     log.With("service", "Archiver", "backend", store.Name()),
		store:   store,
		prefix:  prefix,
		encoder: encoder,
		now:     time.Now,
	}, nil
}

func (a *archiver) Archive(ctx context.Context, filename string, raw []byte) (string, error) {
	key := a.key(filename)
	compressed := a.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	if err := a.store.Put(ctx, key, bytes.NewReader(compressed), archiveContentType); err != nil {
		return "", fmt.Errorf("archive %q: %w", filename, err)
	}
	a.log.Debug("Upload archived", "key", key, "raw_bytes", len(raw), "stored_bytes", len(compressed))
	return key, nil
}

func (a *archiver) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return a.store.Delete(ctx, key)
}

// key is <prefix>/yyyy/mm/dd/<uuid>/<base name>.zst
func (a *archiver) key(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return path.Join(a.prefix, a.now().UTC().Format("2006/01/02"), uuid.NewString(), base+".zst")
}
