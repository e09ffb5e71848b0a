package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"invoiceflow/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Batch   BatchConfig
	Session SessionConfig
	Intake  IntakeConfig
	Export  ExportConfig
	CORS    CORSConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings for the local facade.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// APIConfig holds settings for the remote extraction service client.
type APIConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout returns the per-call timeout for the extraction service.
func (a *APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// BatchConfig holds batch orchestration settings.
type BatchConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetries       int `mapstructure:"max_retries"`
	RetryBackoffSecs int `mapstructure:"retry_backoff_secs"`
}

// SessionConfig selects how the analysis session id is derived.
type SessionConfig struct {
	Mode string `mapstructure:"mode"`
}

// SessionMode returns the validated session derivation mode.
func (s *SessionConfig) SessionMode() (domain.SessionMode, error) {
	switch domain.SessionMode(s.Mode) {
	case domain.SessionModeInline:
		return domain.SessionModeInline, nil
	case domain.SessionModeExplicit:
		return domain.SessionModeExplicit, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSessionMode, s.Mode)
	}
}

// IntakeConfig holds file intake limits.
type IntakeConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// ExportConfig holds ledger export settings.
type ExportConfig struct {
	EntityName     string `mapstructure:"entity_name"`
	FilenamePrefix string `mapstructure:"filename_prefix"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the INVOICEFLOW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// Remote API defaults. Document-heavy inference runs for minutes, so the
	// client timeout is far above a normal HTTP default.
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout_secs", 300)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.max_retries", 2)
	v.SetDefault("batch.retry_backoff_secs", 2)

	// Session defaults
	v.SetDefault("session.mode", "inline")

	// Intake defaults
	v.SetDefault("intake.max_file_size_mb", 50)

	// Export defaults
	v.SetDefault("export.entity_name", "Default Entity")
	v.SetDefault("export.filename_prefix", "ledger")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "INVOICEFLOW_SERVER_PORT",
		"server.read_timeout":      "INVOICEFLOW_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "INVOICEFLOW_SERVER_WRITE_TIMEOUT",
		"server.environment":       "INVOICEFLOW_SERVER_ENVIRONMENT",
		"api.base_url":             "INVOICEFLOW_API_BASE_URL",
		"api.timeout_secs":         "INVOICEFLOW_API_TIMEOUT_SECS",
		"batch.concurrency":        "INVOICEFLOW_BATCH_CONCURRENCY",
		"batch.max_retries":        "INVOICEFLOW_BATCH_MAX_RETRIES",
		"batch.retry_backoff_secs": "INVOICEFLOW_BATCH_RETRY_BACKOFF_SECS",
		"session.mode":             "INVOICEFLOW_SESSION_MODE",
		"intake.max_file_size_mb":  "INVOICEFLOW_INTAKE_MAX_FILE_SIZE_MB",
		"export.entity_name":       "INVOICEFLOW_EXPORT_ENTITY_NAME",
		"export.filename_prefix":   "INVOICEFLOW_EXPORT_FILENAME_PREFIX",
		"cors.allowed_origins":     "INVOICEFLOW_CORS_ALLOWED_ORIGINS",
		"log.level":                "INVOICEFLOW_LOG_LEVEL",
		"log.format":               "INVOICEFLOW_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEFLOW_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEFLOW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.API = APIConfig{
		BaseURL:     strings.TrimRight(v.GetString("api.base_url"), "/"),
		TimeoutSecs: v.GetInt("api.timeout_secs"),
	}
	cfg.Batch = BatchConfig{
		Concurrency:      v.GetInt("batch.concurrency"),
		MaxRetries:       v.GetInt("batch.max_retries"),
		RetryBackoffSecs: v.GetInt("batch.retry_backoff_secs"),
	}
	cfg.Session = SessionConfig{
		Mode: v.GetString("session.mode"),
	}
	cfg.Intake = IntakeConfig{
		MaxFileSizeMB: v.GetInt64("intake.max_file_size_mb"),
	}
	cfg.Export = ExportConfig{
		EntityName:     v.GetString("export.entity_name"),
		FilenamePrefix: v.GetString("export.filename_prefix"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	if _, err := cfg.Session.SessionMode(); err != nil {
		return nil, err
	}

	return cfg, nil
}
