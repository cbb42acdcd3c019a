// Package testutil provides shared environment helpers for E2E and
// integration tests that run against a live tenant. E2E tests cannot import
// internal/, so nothing here depends on it.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Live-tenant environment variables.
const (
	EnvTenantID       = "AZURE_TENANT_ID"
	EnvClientID       = "AZURE_CLIENT_ID"
	EnvClientSecret   = "AZURE_CLIENT_SECRET"
	EnvBaseURL        = "SHAREPOINT_BASE_URL"
	EnvAllowedTenants = "SHAREPOINT_GO_ALLOWED_TENANTS"
)

// LoadDotEnv loads KEY=VALUE pairs from envPath into the process
// environment. A missing file is not an error (CI sets env vars directly).
// Variables already set win over the file.
func LoadDotEnv(envPath string) {
	if _, err := os.Stat(envPath); err != nil {
		return
	}

	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: reading %s: %v\n", envPath, err)
		os.Exit(1)
	}
}

// RequireCredentials crashes the process unless the credential variables
// are set and the tenant is listed in SHAREPOINT_GO_ALLOWED_TENANTS. The
// allowlist keeps a stray .env from pointing the suite at a production
// tenant.
func RequireCredentials() {
	for _, k := range []string{EnvTenantID, EnvClientID, EnvClientSecret, EnvBaseURL} {
		if os.Getenv(k) == "" {
			fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", k)
			os.Exit(1)
		}
	}

	allowlist := os.Getenv(EnvAllowedTenants)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", EnvAllowedTenants)
		fmt.Fprintf(os.Stderr, "Example: %s=00000000-0000-0000-0000-000000000000\n", EnvAllowedTenants)
		os.Exit(1)
	}

	tenant := os.Getenv(EnvTenantID)
	for a := range strings.SplitSeq(allowlist, ",") {
		if strings.TrimSpace(a) == tenant {
			return
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", EnvTenantID, tenant, EnvAllowedTenants, allowlist)
	os.Exit(1)
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}

// Isolate points HOME and XDG_CONFIG_HOME at fresh directories under root so
// a developer's own config file is never read. Returns the new home.
func Isolate(root string) string {
	home := filepath.Join(root, "home")
	cfg := filepath.Join(root, "config")

	for _, d := range []string{home, cfg} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: creating dir %s: %v\n", d, err)
			os.Exit(1)
		}
	}

	os.Setenv("HOME", home)
	os.Setenv("XDG_CONFIG_HOME", cfg)
	os.Unsetenv("SHAREPOINT_GO_CONFIG")
	os.Unsetenv("SHAREPOINT_GO_ENV_FILE")

	return home
}
