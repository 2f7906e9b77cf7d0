package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LocalConfigFileName is the per-project override file.
const LocalConfigFileName = ".wu.toml"

// LocalConfig holds per-project overrides from .wu.toml.
// Empty strings and nil pointers mean "not set" (inherit from global).
type LocalConfig struct {
	Source LocalSource `toml:"source"`
}

// LocalSource overrides the repository to browse.
type LocalSource struct {
	Owner  string `toml:"owner"`
	Repo   string `toml:"repo"`
	Ref    string `toml:"ref"`
	APIURL string `toml:"api_url"`
}

// LoadLocal reads a .wu.toml from dir.
// Returns nil (no error) if the file doesn't exist.
// Returns an error only on parse failure.
func LoadLocal(dir string) (*LocalConfig, error) {
	configFile := filepath.Join(dir, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", configFile, err)
	}

	var local LocalConfig
	md, err := toml.Decode(string(data), &local)
	if err != nil {
		return nil, fmt.Errorf("failed to parse local config %s: %w", configFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unsupported key %q in %s: only [source] can be overridden", undecoded[0].String(), configFile)
	}

	return &local, nil
}

// defaultLocalConfig is the template for wu config init --local
const defaultLocalConfig = `# wu local config (per-project overrides)
# Settings here override ~/.wu/config.toml when wu runs in this directory.

[source]
# owner = "Is-Ammar"
# repo = "writeups"
# ref = "main"
`

// DefaultLocalConfig returns the default local configuration template content.
func DefaultLocalConfig() string {
	return defaultLocalConfig
}
