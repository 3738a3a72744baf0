package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks cross-field rules. Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.Email) == "" || c.Auth.Password == "" {
		return fmt.Errorf("auth.email and auth.password are required")
	}
	if c.Auth.SessionToken == "" {
		return fmt.Errorf("auth.session_token is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be > 0 (got %s)", c.Auth.SessionTTL)
	}
	if err := c.Seed.validate(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := c.Blob.validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	if _, err := time.LoadLocation(c.Workspace.Timezone); err != nil {
		return fmt.Errorf("workspace.timezone: %w", err)
	}
	return nil
}

func (s *SeedConfig) validate() error {
	switch s.Source {
	case SeedDemo, SeedNone, SeedBlob:
		return nil
	case SeedJSON:
		if s.Path == "" {
			return fmt.Errorf("path is required for source %q", s.Source)
		}
	case SeedSQLite:
		if s.Path == "" && s.DSN == "" {
			return fmt.Errorf("path or dsn is required for source %q", s.Source)
		}
	case SeedPostgres:
		if s.DSN == "" {
			return fmt.Errorf("dsn is required for source %q", s.Source)
		}
	default:
		return fmt.Errorf("unknown source %q", s.Source)
	}
	return nil
}

func (b *BlobConfig) validate() error {
	switch b.Driver {
	case BlobFilesystem, BlobMemory:
		return nil
	case BlobS3:
		if b.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required for driver s3")
		}
		return nil
	default:
		return fmt.Errorf("unknown driver %q", b.Driver)
	}
}
