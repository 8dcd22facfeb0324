package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// ConfigPathEnvVar overrides the config file search paths.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths lists where the optional YAML config file is searched,
// in order. The first file found wins.
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/caseshelf/config.yaml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Blob     BlobConfig     `koanf:"blob"`
	Lending  LendingConfig  `koanf:"lending"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=0,max=65535"`
}

type DatabaseConfig struct {
	FilePath          string        `koanf:"file_path" validate:"required"`
	Debug             bool          `koanf:"debug"`
	MaxRetries        int           `koanf:"max_retries" validate:"min=0"`
	ConnectRetryCount int           `koanf:"connect_retry_count" validate:"min=1"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"`
	BusyTimeout       time.Duration `koanf:"busy_timeout"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. Required outside of tests.
	JWTSecret string `koanf:"jwt_secret" validate:"required,min=16"`
}

type SMTPConfig struct {
	// Host empty means email delivery is disabled and the no-op notifier is
	// used.
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"min=0,max=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from" validate:"omitempty,email"`
}

type BlobConfig struct {
	// Dir is the root directory of the local blob store.
	Dir string `koanf:"dir" validate:"required"`
	// BaseURL prefixes the public URL of stored blobs.
	BaseURL string `koanf:"base_url"`
}

type LendingConfig struct {
	// DefaultLoanDays is used when a borrow request omits a due date.
	DefaultLoanDays int `koanf:"default_loan_days" validate:"min=1"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 4810,
		},
		Database: DatabaseConfig{
			FilePath:          "./tmp/data.sqlite",
			MaxRetries:        5,
			ConnectRetryCount: 5,
			ConnectRetryDelay: 2 * time.Second,
			BusyTimeout:       5 * time.Second,
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "noreply@caseshelf.local",
		},
		Blob: BlobConfig{
			Dir:     "./tmp/blobs",
			BaseURL: "/files",
		},
		Lending: LendingConfig{
			DefaultLoanDays: 14,
		},
	}
}

// New loads configuration in three layers: struct defaults, then an optional
// YAML file, then environment variables. ENV > file > defaults.
func New() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps environment variable names to koanf config paths.
// Unmapped variables are skipped so unrelated environment noise can't leak
// into the config.
func envTransform(key string) string {
	mappings := map[string]string{
		"server_host": "server.host",
		"server_port": "server.port",
		"port":        "server.port",

		"database_file_path":           "database.file_path",
		"database_debug":               "database.debug",
		"database_max_retries":         "database.max_retries",
		"database_connect_retry_count": "database.connect_retry_count",
		"database_connect_retry_delay": "database.connect_retry_delay",
		"database_busy_timeout":        "database.busy_timeout",

		"jwt_secret": "auth.jwt_secret",

		"smtp_host":     "smtp.host",
		"smtp_port":     "smtp.port",
		"smtp_username": "smtp.username",
		"smtp_password": "smtp.password",
		"smtp_from":     "smtp.from",

		"blob_dir":      "blob.dir",
		"blob_base_url": "blob.base_url",

		"lending_default_loan_days": "lending.default_loan_days",
	}
	if mapped, ok := mappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
