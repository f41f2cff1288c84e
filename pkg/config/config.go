// Package config loads runtime settings from defaults, an optional YAML file,
// .env files and the process environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFiles are read when present, in order. Earlier files win.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config is the full runtime configuration.
type Config struct {
	DBDriver        string `yaml:"db_driver" env:"DB_DRIVER" validate:"oneof=sqlite3 pgx"`
	DatabaseURL     string `yaml:"database_url" env:"DATABASE_URL" validate:"required"`
	UploadsDir      string `yaml:"uploads_dir" env:"UPLOADS_DIR"`
	MaxUploadSize   int64  `yaml:"max_upload_size" env:"MAX_UPLOAD_SIZE" validate:"gte=0"`
	IngestWorkers   int    `yaml:"ingest_workers" env:"INGEST_WORKERS" validate:"gte=1,lte=64"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=silent error warn info debug"`
	LogFormat       string `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=text json"`
	MetricsTextfile string `yaml:"metrics_textfile" env:"METRICS_TEXTFILE"`

	S3 S3Options `yaml:"s3" envPrefix:"S3_"`
}

// S3Options configure s3:// upload sources.
type S3Options struct {
	Region          string `yaml:"region" env:"REGION"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT" validate:"omitempty,url"`
	PathStyle       bool   `yaml:"path_style" env:"PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		DBDriver:      "sqlite3",
		DatabaseURL:   "concertarchive.db",
		UploadsDir:    filepath.Join(os.TempDir(), "concertarchive-uploads"),
		MaxUploadSize: 50 << 20,
		IngestWorkers: 4,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadEnv loads the env files that exist and reports how many it found.
// Variables already present in the environment are not overridden.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load builds the configuration. path names an optional YAML file; when it is
// empty only defaults, env files and the environment are consulted.
func Load(path string, envFiles []string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
