package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrGHNotFound indicates gh CLI is not installed or not in PATH
var ErrGHNotFound = errors.New("gh not found")

// ErrGHNotAuthenticated indicates gh CLI is installed but not authenticated
var ErrGHNotAuthenticated = errors.New("gh not authenticated: please run 'gh auth login'")

// TokenEnvVars are consulted in order by ResolveToken.
var TokenEnvVars = []string{"WU_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

// ResolveToken picks the token to authenticate with: the configured value,
// then the environment, then `gh auth token`. An empty result means
// anonymous access, which GitHub rate limits to 60 requests per hour.
func ResolveToken(ctx context.Context, configured string) string {
	if configured != "" {
		return configured
	}
	for _, name := range TokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	token, err := TokenFromGH(ctx)
	if err != nil {
		return ""
	}
	return token
}

// TokenFromGH asks the gh CLI for its stored token.
func TokenFromGH(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", ErrGHNotFound
	}

	cmd := exec.CommandContext(ctx, "gh", "auth", "token")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" || strings.Contains(errMsg, "not logged") || strings.Contains(errMsg, "no oauth token") {
			return "", ErrGHNotAuthenticated
		}
		return "", fmt.Errorf("gh auth token failed: %s", errMsg)
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", ErrGHNotAuthenticated
	}
	return token, nil
}
