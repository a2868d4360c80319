package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yegors/vidscribe/internal/processing"
	"github.com/yegors/vidscribe/internal/transcription"
	"github.com/yegors/vidscribe/internal/upload"
)

// Config is the root of the TOML configuration file
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Logging       LoggingConfig       `toml:"logging"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Upload        UploadConfig        `toml:"upload"`
	Processing    ProcessingConfig    `toml:"processing"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host                   string   `toml:"host"`
	Port                   int      `toml:"port"`
	StaticFilesDir         string   `toml:"static_files_dir"`
	CORSAllowedOrigins     []string `toml:"cors_allowed_origins"`
	MaxConnections         int      `toml:"max_connections"`
	UploadRatePerMinute    int      `toml:"upload_rate_per_minute"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TranscriptionConfig configures the external AI service
type TranscriptionConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIBaseURL     string `toml:"api_base_url"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PromptPath     string `toml:"prompt_path"`
	KeyringService string `toml:"keyring_service"`
	KeyringUser    string `toml:"keyring_user"`
}

// UploadConfig configures the file validator
type UploadConfig struct {
	MaxSizeMB    int64    `toml:"max_size_mb"`
	AllowedTypes []string `toml:"allowed_types"`
}

// ProcessingConfig configures the cosmetic phase delays
type ProcessingConfig struct {
	UploadDelayMs   int `toml:"upload_delay_ms"`
	ExtractDelayMs  int `toml:"extract_delay_ms"`
	FinalizeDelayMs int `toml:"finalize_delay_ms"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   8080,
			StaticFilesDir:         "web",
			MaxConnections:         64,
			UploadRatePerMinute:    30,
			ShutdownTimeoutSeconds: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Transcription: TranscriptionConfig{
			Provider:       transcription.ProviderGemini,
			APIKeyEnv:      "GEMINI_API_KEY",
			KeyringService: "vidscribe",
		},
		Upload: UploadConfig{
			MaxSizeMB:    upload.MaxFileSize / (1024 * 1024),
			AllowedTypes: append([]string(nil), upload.DefaultAllowedTypes...),
		},
		Processing: ProcessingConfig{
			UploadDelayMs:   1000,
			ExtractDelayMs:  1200,
			FinalizeDelayMs: 800,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err == nil {
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Transcription.Model == "" {
		cfg.Transcription.Model = cfg.Transcription.DefaultModel()
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Transcription.Provider {
	case transcription.ProviderGemini:
	case transcription.ProviderOpenAI:
		// The public OpenAI endpoint rejects video file parts
		if c.Transcription.APIBaseURL == "" {
			return fmt.Errorf("transcription provider %q requires api_base_url of an endpoint that accepts video file parts", c.Transcription.Provider)
		}
	default:
		return fmt.Errorf("unsupported transcription provider: %q", c.Transcription.Provider)
	}
	if c.Transcription.TimeoutSeconds < 0 {
		return fmt.Errorf("transcription timeout must not be negative")
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload max_size_mb must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("upload allowed_types must not be empty")
	}
	if c.Processing.UploadDelayMs < 0 || c.Processing.ExtractDelayMs < 0 || c.Processing.FinalizeDelayMs < 0 {
		return fmt.Errorf("processing delays must not be negative")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// MaxSizeBytes returns the upload ceiling in bytes
func (c *UploadConfig) MaxSizeBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}

// Phases returns the phase choreography with the configured delays
func (c *ProcessingConfig) Phases() []processing.Phase {
	return processing.PhasesWithDelays(
		time.Duration(c.UploadDelayMs)*time.Millisecond,
		time.Duration(c.ExtractDelayMs)*time.Millisecond,
		time.Duration(c.FinalizeDelayMs)*time.Millisecond,
	)
}

// DefaultModel returns the model used by the configured provider when none is set
func (c *TranscriptionConfig) DefaultModel() string {
	if c.Provider == transcription.ProviderOpenAI {
		return transcription.DefaultOpenAIModel
	}
	return transcription.DefaultGeminiModel
}

// Timeout returns the AI call timeout; zero means none
func (c *TranscriptionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
