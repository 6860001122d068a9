package config

import (
	"fmt"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Verification.validate(); err != nil {
		return fmt.Errorf("verification: %w", err)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for the local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend must be local or gcs (got %q)", c.Storage.Backend)
	}

	if c.Notify.BufferSize <= 0 {
		return fmt.Errorf("notify.buffer_size must be > 0 (got %d)", c.Notify.BufferSize)
	}

	return nil
}

func (v *VerificationConfig) validate() error {
	if v.ScanDelay < 0 || v.ProcessDelay < 0 || v.ManualDelay < 0 {
		return fmt.Errorf("stage delays must be >= 0")
	}
	if v.MobileBreakpoint <= 0 {
		return fmt.Errorf("mobile_breakpoint must be > 0 (got %d)", v.MobileBreakpoint)
	}
	if v.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be > 0 (got %d)", v.MaxSessions)
	}
	if v.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be > 0 (got %d)", v.MaxUploadBytes)
	}
	if v.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must be >= 0 (got %s)", v.IdleTimeout)
	}

	if _, err := time.LoadLocation(v.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	return nil
}
