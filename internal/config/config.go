package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tgienger/dash/internal/db"
)

// Config is the root configuration of the dashboard client.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	UI      UIConfig      `yaml:"ui"`
}

// APIConfig holds settings of the admin REST API client.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"DASH_API_BASE_URL" env-default:"http://localhost:8080"`
	// Timeout of 0 disables the per-request timeout.
	Timeout time.Duration `yaml:"timeout" env:"DASH_API_TIMEOUT" env-default:"0s"`
}

// StorageConfig holds the local store location.
type StorageConfig struct {
	Path string `yaml:"path" env:"DASH_STORAGE_PATH"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"DASH_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"DASH_LOG_FORMAT" env-default:"text"`
	// File receives log output; the terminal is owned by the UI.
	File string `yaml:"file" env:"DASH_LOG_FILE"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	NoticePageSize int `yaml:"notice_page_size" env:"DASH_NOTICE_PAGE_SIZE" env-default:"10"`
	GamePageSize   int `yaml:"game_page_size"   env:"DASH_GAME_PAGE_SIZE"   env-default:"20"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The file path comes from DASH_CONFIG,
// falling back to $XDG_CONFIG_HOME/dash/config.yaml; a missing default file is not an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("DASH_CONFIG")
	explicitPath := path != ""
	if !explicitPath {
		path = defaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dash", "config.yaml")
}

func (c *Config) applyDefaults() error {
	if c.Storage.Path == "" {
		p, err := db.DefaultPath()
		if err != nil {
			return fmt.Errorf("config: storage path: %w", err)
		}
		c.Storage.Path = p
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(filepath.Dir(c.Storage.Path), "dash.log")
	}
	return nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url: %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout: must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: %q must be text or json", c.Log.Format))
	}
	if c.UI.NoticePageSize <= 0 {
		errs = append(errs, errors.New("ui.notice_page_size: must be positive"))
	}
	if c.UI.GamePageSize <= 0 {
		errs = append(errs, errors.New("ui.game_page_size: must be positive"))
	}

	return errors.Join(errs...)
}
