package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "censo.yaml"

// Config holds all configuration for the application
type Config struct {
	FormatsFile      string       `yaml:"formats_file"`
	OutputSuffix     string       `yaml:"output_suffix"`
	SheetName        string       `yaml:"sheet_name"`
	HighlightInvalid *bool        `yaml:"highlight_invalid"`
	LogLevel         string       `yaml:"log_level"`
	LogFile          string       `yaml:"log_file"`
	Server           ServerConfig `yaml:"server"`
}

// ServerConfig holds HTTP upload surface settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// MaxUploadBytes is the multipart memory limit for one request.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Highlight reports whether invalid cells get a red fill on XLSX export.
func (c *Config) Highlight() bool {
	return c.HighlightInvalid == nil || *c.HighlightInvalid
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file. An empty path yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.FormatsFile != "" && !filepath.IsAbs(cfg.FormatsFile) {
		cfg.FormatsFile = filepath.Join(filepath.Dir(path), cfg.FormatsFile)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first if present. With no explicit path, CENSO_CONFIG
// is used, then censo.yaml in the working directory if it exists.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CENSO_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CENSO_FORMATS_FILE"); v != "" {
		cfg.FormatsFile = v
	}
	if v := os.Getenv("CENSO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CENSO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("CENSO_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CENSO_MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			cfg.Server.MaxUploadMB = mb
		}
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = "_normalizado"
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "censo.log"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
}
