package app

import (
	"context"
	"fmt"

	"github.com/yungbote/techlearn-backend/internal/platform/blob"
	"github.com/yungbote/techlearn-backend/internal/platform/gcp"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type closableStore interface {
	blob.Store
	Close() error
}

var newBucketStore = func(ctx context.Context, log *logger.Logger, cfg gcp.StorageConfig) (closableStore, error) {
	store, err := gcp.NewBucketStore(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMisconfigured StorageProviderBootstrapErrorCode = "misconfigured"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBlobStore picks the upload store for OBJECT_STORAGE_MODE. The returned
// close func is never nil.
func resolveBlobStore(ctx context.Context, log *logger.Logger, cfg Config) (blob.Store, func() error, error) {
	noClose := func() error { return nil }
	mode := cfg.ObjectStorageMode
	fail := func(code StorageProviderBootstrapErrorCode, cause error) (blob.Store, func() error, error) {
		err := &StorageProviderBootstrapError{Code: code, Mode: mode, Cause: cause}
		log.Error("Object storage provider bootstrap failed", "mode", mode, "error_code", code, "error", cause)
		return nil, noClose, err
	}

	switch mode {
	case StorageModeLocal:
		store, err := blob.NewLocalStore(cfg.LocalStorageDir, "")
		if err != nil {
			return fail(StorageProviderBootstrapErrorConnectFailed, err)
		}
		log.Info("Selecting object storage provider", "mode", mode, "dir", cfg.LocalStorageDir)
		return store, noClose, nil
	case string(gcp.StorageModeGCS), string(gcp.StorageModeGCSEmulator):
		storageCfg, _ := gcp.StorageConfigFromEnv()
		storageCfg.Mode = gcp.StorageMode(mode)
		if err := storageCfg.Validate(); err != nil {
			return fail(StorageProviderBootstrapErrorMisconfigured, err)
		}
		log.Info("Selecting object storage provider", "mode", mode, "bucket", storageCfg.Bucket, "emulator_host", storageCfg.EmulatorHost)
		store, err := newBucketStore(ctx, log, storageCfg)
		if err != nil {
			return fail(StorageProviderBootstrapErrorConnectFailed, err)
		}
		return store, store.Close, nil
	default:
		return fail(StorageProviderBootstrapErrorInvalidMode, fmt.Errorf("unsupported object storage mode %q (allowed: local, gcs, gcs_emulator)", mode))
	}
}
