// Package config loads crmcore settings from YAML and the environment.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Seed      SeedConfig      `yaml:"seed"`
	Blob      BlobConfig      `yaml:"blob"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// AuthConfig holds the single shared workspace identity.
type AuthConfig struct {
	Email        string        `yaml:"email"         env:"AUTH_EMAIL"         env-default:"krcoffelt@gmail.com"`
	Password     string        `yaml:"password"      env:"AUTH_PASSWORD"      env-default:"hometown"`
	SessionToken string        `yaml:"session_token" env:"AUTH_SESSION_TOKEN" env-default:"local-dev-session-token"`
	CookieName   string        `yaml:"cookie_name"   env:"AUTH_COOKIE_NAME"   env-default:"crm_session"`
	SessionTTL   time.Duration `yaml:"session_ttl"   env:"AUTH_SESSION_TTL"   env-default:"168h"`
}

// Seed sources.
const (
	SeedDemo     = "demo"
	SeedJSON     = "json"
	SeedBlob     = "blob"
	SeedSQLite   = "sqlite"
	SeedPostgres = "postgres"
	SeedNone     = "none"
)

// SeedConfig selects where the initial workspace comes from.
type SeedConfig struct {
	Source  string `yaml:"source"   env:"SEED_SOURCE"   env-default:"demo"`
	Path    string `yaml:"path"     env:"SEED_PATH"`
	DSN     string `yaml:"dsn"      env:"SEED_DSN"`
	BlobKey string `yaml:"blob_key" env:"SEED_BLOB_KEY" env-default:"seed/workspace.json"`
}

// Blob drivers.
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// BlobConfig selects the attachment storage backend.
type BlobConfig struct {
	Driver          string `yaml:"driver"            env:"BLOB_DRIVER"            env-default:"fs"`
	FSRoot          string `yaml:"fs_root"           env:"BLOB_FS_ROOT"           env-default:"./blobdata"`
	S3Bucket        string `yaml:"s3_bucket"         env:"BLOB_S3_BUCKET"`
	S3Region        string `yaml:"s3_region"         env:"BLOB_S3_REGION"         env-default:"us-east-1"`
	S3Endpoint      string `yaml:"s3_endpoint"       env:"BLOB_S3_ENDPOINT"`
	S3PathStyle     bool   `yaml:"s3_path_style"     env:"BLOB_S3_PATH_STYLE"     env-default:"false"`
	AccessKeyID     string `yaml:"access_key_id"     env:"BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"BLOB_S3_SECRET_ACCESS_KEY"`
}

// MetricsConfig controls the prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"   env:"METRICS_ENABLED"   env-default:"true"`
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"crmcore"`
	Path      string `yaml:"path"      env:"METRICS_PATH"      env-default:"/metrics"`
}

// WorkspaceConfig holds workspace-wide presentation settings.
type WorkspaceConfig struct {
	// Timezone anchors day boundaries for dashboards and due filters.
	Timezone string `yaml:"timezone" env:"WORKSPACE_TIMEZONE" env-default:"UTC"`
}

// Location resolves Timezone, falling back to UTC.
func (w WorkspaceConfig) Location() *time.Location {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
