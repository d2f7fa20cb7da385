package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Storage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Config struct {
	Listen        string        `yaml:"listen"`
	LogLevel      string        `yaml:"log_level"`
	Storage       Storage       `yaml:"storage"`
	Debounce      time.Duration `yaml:"debounce"`
	LocalesDir    string        `yaml:"locales_dir"`
	LocalesURL    string        `yaml:"locales_url"`
	DefaultLocale string        `yaml:"default_locale"`
	AssetsHost    string        `yaml:"assets_host"`
	TemplatesDir  string        `yaml:"templates_dir"`
	Manifest      string        `yaml:"manifest"`
	Credentials   Credentials   `yaml:"credentials"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:        ":8080",
		LogLevel:      "info",
		Storage:       Storage{Driver: StorageMemory},
		Debounce:      500 * time.Millisecond,
		DefaultLocale: "en",
		Credentials:   Credentials{Email: "demo@datacue.com", Password: "password"},
	}
}

// Load reads path (when set) over the defaults and then applies DASHBOARD_*
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set("DASHBOARD_LISTEN", &c.Listen)
	set("DASHBOARD_LOGLEVEL", &c.LogLevel)
	set("DASHBOARD_STORAGE", &c.Storage.Driver)
	set("DASHBOARD_STORAGE_PATH", &c.Storage.Path)
	set("DASHBOARD_LOCALES_DIR", &c.LocalesDir)
	set("DASHBOARD_LOCALES_URL", &c.LocalesURL)
	set("DASHBOARD_LOCALE", &c.DefaultLocale)
	set("DASHBOARD_ASSETS_HOST", &c.AssetsHost)
	set("DASHBOARD_TEMPLATES_DIR", &c.TemplatesDir)
	set("DASHBOARD_MANIFEST", &c.Manifest)
	set("DASHBOARD_DEMO_EMAIL", &c.Credentials.Email)
	set("DASHBOARD_DEMO_PASSWORD", &c.Credentials.Password)
	if v := strings.TrimSpace(getenv("DASHBOARD_DEBOUNCE")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: DASHBOARD_DEBOUNCE: %v", ErrInvalidConfig, err)
		}
		c.Debounce = d
	}
	return nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile, StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage %q needs a path", ErrInvalidConfig, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: negative debounce", ErrInvalidConfig)
	}
	return nil
}
