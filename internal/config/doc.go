// Package config handles loading and validation of wu configuration.
//
// Configuration is read from ~/.wu/config.toml (or $WU_CONFIG), then a
// project file .wu.toml in the working directory, then environment
// variables.
//
// # Configuration Sources (highest priority first)
//
//   - WU_OWNER, WU_REPO, WU_REF env vars: repository to browse
//   - WU_CACHE_TTL, WU_CACHE_BACKEND env vars: cache settings
//   - PORT env var: server listen port
//   - .wu.toml in the working directory ([source] only)
//   - Config file settings
//   - Default values
//
// Tokens are not part of the merge: the CLI resolves them separately from
// source.token, WU_TOKEN, GITHUB_TOKEN, GH_TOKEN and finally `gh auth token`.
//
// # Key Settings
//
//	[source]
//	owner = "Is-Ammar"
//	repo = "writeups"
//
//	[cache]
//	backend = "file"   # or "sqlite"
//	ttl = "10m"
//
// # Path Validation
//
// cache.dir must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
