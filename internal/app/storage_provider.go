package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/tabula-backend/internal/platform/logger"
	"github.com/yungbote/tabula-backend/internal/platform/objectstore"
)

var newArchiveStore = objectstore.New

type ArchiveBootstrapErrorCode string

const (
	ArchiveBootstrapErrorInvalidBackend ArchiveBootstrapErrorCode = "invalid_backend"
	ArchiveBootstrapErrorMissingBucket  ArchiveBootstrapErrorCode = "missing_bucket"
	ArchiveBootstrapErrorConnectFailed  ArchiveBootstrapErrorCode = "connect_failed"
)

type ArchiveBootstrapError struct {
	Code    ArchiveBootstrapErrorCode
	Backend string
	Bucket  string
	Cause   error
}

func (e *ArchiveBootstrapError) Error() string {
	if e == nil {
		return "archive store bootstrap failed"
	}
	return fmt.Sprintf(
		"archive store bootstrap failed (code=%s backend=%q bucket=%q): %v",
		e.Code,
		e.Backend,
		e.Bucket,
		e.Cause,
	)
}

func (e *ArchiveBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveArchiveStore returns the configured upload archive store, or nil
// when archiving is disabled.
func resolveArchiveStore(ctx context.Context, log *logger.Logger, cfg Config) (objectstore.BlobStore, error) {
	storeCfg := cfg.ObjectStoreConfig()
	backend := objectstore.Backend(strings.ToLower(strings.TrimSpace(string(storeCfg.Backend))))
	storeCfg.Backend = backend

	switch backend {
	case "", objectstore.BackendNone:
		log.Info("Upload archive disabled")
		return nil, nil
	case objectstore.BackendMemory:
	case objectstore.BackendGCS, objectstore.BackendS3:
		if storeCfg.Bucket == "" {
			err := &ArchiveBootstrapError{
				Code:    ArchiveBootstrapErrorMissingBucket,
				Backend: string(backend),
				Cause:   errors.New("ARCHIVE_BUCKET is required"),
			}
			log.Error("Archive store selection failed", "backend", backend, "error_code", err.Code, "error", err)
			return nil, err
		}
	default:
		err := &ArchiveBootstrapError{
			Code:    ArchiveBootstrapErrorInvalidBackend,
			Backend: string(backend),
			Cause:   fmt.Errorf("unsupported archive backend %q", backend),
		}
		log.Error("Archive store selection failed", "backend", backend, "error_code", err.Code, "error", err)
		return nil, err
	}

	log.Info("Selecting archive store", "backend", backend, "bucket", storeCfg.Bucket, "endpoint", storeCfg.S3Endpoint)
	store, err := newArchiveStore(ctx, log, storeCfg)
	if err != nil {
		classified := &ArchiveBootstrapError{
			Code:    ArchiveBootstrapErrorConnectFailed,
			Backend: string(backend),
			Bucket:  storeCfg.Bucket,
			Cause:   err,
		}
		log.Error("Archive store bootstrap failed", "backend", backend, "error_code", classified.Code, "error", classified)
		return nil, classified
	}
	return store, nil
}

func archiveBootstrapErrorCode(err error) ArchiveBootstrapErrorCode {
	var bootstrapErr *ArchiveBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return ArchiveBootstrapErrorConnectFailed
}
