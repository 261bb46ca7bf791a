package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/techlearn-backend/internal/platform/envutil"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

type StorageConfig struct {
	Mode          StorageMode
	Bucket        string
	EmulatorHost  string
	CDNDomain     string
	PublicBaseURL string
}

func (cfg StorageConfig) IsEmulator() bool {
	return cfg.Mode == StorageModeGCSEmulator
}

// StorageConfigFromEnv reads OBJECT_STORAGE_MODE, MATERIAL_GCS_BUCKET_NAME,
// STORAGE_EMULATOR_HOST, MATERIAL_CDN_DOMAIN and OBJECT_STORAGE_PUBLIC_BASE_URL.
func StorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		Mode:          StorageMode(strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", string(StorageModeGCS)))),
		Bucket:        envutil.String("MATERIAL_GCS_BUCKET_NAME", ""),
		EmulatorHost:  strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", ""), "/"),
		CDNDomain:     envutil.String("MATERIAL_CDN_DOMAIN", ""),
		PublicBaseURL: strings.TrimRight(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""), "/"),
	}
	return cfg, cfg.Validate()
}

func (cfg StorageConfig) Validate() error {
	switch cfg.Mode {
	case StorageModeGCS, StorageModeGCSEmulator:
	default:
		return fmt.Errorf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", cfg.Mode, StorageModeGCS, StorageModeGCSEmulator)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("missing env var MATERIAL_GCS_BUCKET_NAME")
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", cfg.PublicBaseURL)
	}
	if !cfg.IsEmulator() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", StorageModeGCSEmulator)
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost)
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
