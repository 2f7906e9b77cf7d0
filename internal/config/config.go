package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for the writeups source and cache.
const (
	DefaultOwner    = "Is-Ammar"
	DefaultRepo     = "writeups"
	DefaultAPIURL   = "https://api.github.com"
	DefaultCacheTTL = 10 * time.Minute
	DefaultAddr     = "127.0.0.1:8080"
)

// Duration is a time.Duration written as a Go duration string ("10m") in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// SourceConfig selects the repository to browse.
type SourceConfig struct {
	Owner       string `toml:"owner" validate:"required"`
	Repo        string `toml:"repo" validate:"required"`
	Ref         string `toml:"ref,omitempty"`
	APIURL      string `toml:"api_url" validate:"required,url"`
	Token       string `toml:"token,omitempty"`
	Concurrency int    `toml:"concurrency" validate:"gte=0,lte=64"`
}

// CacheConfig controls the persisted writeup list.
type CacheConfig struct {
	Backend string   `toml:"backend" validate:"omitempty,oneof=file sqlite"`
	TTL     Duration `toml:"ttl" validate:"gte=0"`
	Dir     string   `toml:"dir,omitempty"`
}

// ThemeConfig holds UI theme/color configuration
type ThemeConfig struct {
	Name     string `toml:"name,omitempty" validate:"omitempty,oneof=none default dracula nord gruvbox catppuccin"`
	Mode     string `toml:"mode,omitempty" validate:"omitempty,oneof=auto light dark"`
	Primary  string `toml:"primary,omitempty"`
	Accent   string `toml:"accent,omitempty"`
	Success  string `toml:"success,omitempty"`
	Error    string `toml:"error,omitempty"`
	Muted    string `toml:"muted,omitempty"`
	Normal   string `toml:"normal,omitempty"`
	Info     string `toml:"info,omitempty"`
	Warning  string `toml:"warning,omitempty"`
	Nerdfont bool   `toml:"nerdfont"`
}

// RenderConfig controls document rendering.
type RenderConfig struct {
	// CodeStyle is a chroma style name; empty follows the theme.
	CodeStyle string `toml:"code_style"`
	// Width wraps terminal output; 0 uses the terminal width.
	Width int `toml:"width" validate:"gte=0"`
}

// ServerConfig configures `wu serve`.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
}

// Config holds the wu configuration
type Config struct {
	Source SourceConfig `toml:"source"`
	Cache  CacheConfig  `toml:"cache"`
	Theme  ThemeConfig  `toml:"theme"`
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Source: SourceConfig{
			Owner:       DefaultOwner,
			Repo:        DefaultRepo,
			APIURL:      DefaultAPIURL,
			Concurrency: 8,
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     Duration(DefaultCacheTTL),
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// CacheTTL returns the cache freshness window.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL)
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the config file location: $WU_CONFIG or ~/.wu/config.toml.
func Path() (string, error) {
	if p := os.Getenv("WU_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wu", "config.toml"), nil
}

// Load reads the config file at Path.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Unset values keep their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := finalize(&cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// finalize validates cfg and expands paths in place.
func finalize(cfg *Config) error {
	if err := ValidatePath(cfg.Cache.Dir, "cache.dir"); err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	expanded, err := expandPath(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("expand cache.dir: %w", err)
	}
	cfg.Cache.Dir = expanded
	return nil
}

const defaultConfig = `# wu configuration

# Repository holding the writeups
[source]
owner = "Is-Ammar"
repo = "writeups"
# Branch, tag or commit to read (default: the repository's default branch)
# ref = "main"
# GitHub Enterprise: api_url = "https://github.example.com/api/v3"
api_url = "https://api.github.com"
# Personal access token. Prefer WU_TOKEN / GITHUB_TOKEN or gh auth login.
# token = ""
# Directories listed in parallel (0 = unbounded)
concurrency = 8

# Local cache of the crawled writeup list
[cache]
backend = "file"   # "file" or "sqlite"
ttl = "10m"        # records older than this are refetched
# Where cache files live (default ~/.wu). Must be absolute or start with ~
# dir = "~/.wu"

# Colors for the browser and list output
[theme]
# name = "default"  # none, default, dracula, nord, gruvbox, catppuccin
# mode = "auto"     # auto, light, dark
# nerdfont = false

# Document rendering
[render]
# code_style = "monokai" # any chroma style (default: matches the theme)
# width = 100          # 0 = terminal width

# wu serve
[server]
addr = "127.0.0.1:8080"
`

// DefaultConfig returns the default configuration template content.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at Path.
// If force is true, overwrites an existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", err
	}

	return path, nil
}

type ctxKey struct{}

// WithConfig attaches cfg to the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the attached config, or the defaults if none is attached.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}
	cfg := Default()
	return &cfg
}
