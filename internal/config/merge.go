package config

import (
	"fmt"
	"net"
	"time"
)

// MergeLocal merges a local per-project config into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global *Config, local *LocalConfig) (*Config, error) {
	if local == nil {
		return global, nil
	}

	merged := *global
	if local.Source.Owner != "" {
		merged.Source.Owner = local.Source.Owner
	}
	if local.Source.Repo != "" {
		merged.Source.Repo = local.Source.Repo
	}
	if local.Source.Ref != "" {
		merged.Source.Ref = local.Source.Ref
	}
	if local.Source.APIURL != "" {
		merged.Source.APIURL = local.Source.APIURL
	}

	if err := Validate(&merged); err != nil {
		return nil, fmt.Errorf("%s: %w", LocalConfigFileName, err)
	}
	return &merged, nil
}

// ApplyEnv overlays environment overrides onto cfg, returning a new Config.
// getenv is os.Getenv outside tests.
func ApplyEnv(cfg *Config, getenv func(string) string) (*Config, error) {
	merged := *cfg

	if v := getenv("WU_OWNER"); v != "" {
		merged.Source.Owner = v
	}
	if v := getenv("WU_REPO"); v != "" {
		merged.Source.Repo = v
	}
	if v := getenv("WU_REF"); v != "" {
		merged.Source.Ref = v
	}
	if v := getenv("WU_CACHE_BACKEND"); v != "" {
		merged.Cache.Backend = v
	}
	if v := getenv("WU_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WU_CACHE_TTL %q: %w", v, err)
		}
		merged.Cache.TTL = Duration(ttl)
	}
	if v := getenv("PORT"); v != "" {
		host, _, err := net.SplitHostPort(merged.Server.Addr)
		if err != nil {
			host = ""
		}
		merged.Server.Addr = net.JoinHostPort(host, v)
	}

	if err := Validate(&merged); err != nil {
		return nil, err
	}
	return &merged, nil
}
