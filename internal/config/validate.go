package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Validation range constants.
const (
	maxRetriesLimit = 10
	minTimeout      = 1 * time.Second
)

var (
	validProviders    = []string{"oauth2", "azidentity"}
	validUsersSources = []string{"rest", "sdk"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
	validLogFormats   = []string{"auto", "text", "json"}
)

// Validate checks all configuration values and returns every error found,
// so a user can fix them in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateSite(&cfg.Site)...)
	errs = append(errs, validateOutput(&cfg.Output)...)
	errs = append(errs, validateOneOf("users.source", cfg.Users.Source, validUsersSources)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

// ValidateResolved checks constraints that only hold after every override
// layer has been applied: the credential must be complete.
func ValidateResolved(cfg *Config) error {
	var errs []error

	if cfg.Auth.TenantID == "" {
		errs = append(errs, fmt.Errorf("auth.tenant_id: not set (config file or %s)", EnvTenantID))
	}

	if cfg.Auth.ClientID == "" {
		errs = append(errs, fmt.Errorf("auth.client_id: not set (config file or %s)", EnvClientID))
	}

	if cfg.Auth.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("auth.client_secret: not set (config file or %s)", EnvClientSecret))
	}

	return errors.Join(errs...)
}

// RequireSite reports whether the site coordinates needed to resolve a site
// are present.
func RequireSite(cfg *Config) error {
	if cfg.Site.Hostname == "" {
		return fmt.Errorf("site.hostname: not set (config file or %s)", EnvBaseURL)
	}

	return nil
}

func validateAuth(a *AuthConfig) []error {
	errs := validateOneOf("auth.provider", a.Provider, validProviders)

	if a.Scope == "" {
		errs = append(errs, errors.New("auth.scope: must not be empty"))
	}

	return errs
}

func validateSite(s *SiteConfig) []error {
	var errs []error

	if strings.Contains(s.Hostname, "/") && !strings.Contains(s.Hostname, "://") {
		errs = append(errs, fmt.Errorf("site.hostname: must be a bare hostname, got %q", s.Hostname))
	}

	if s.FileName == "" {
		errs = append(errs, errors.New("site.file_name: must not be empty"))
	}

	if strings.ContainsAny(s.FileName, `/\`) {
		errs = append(errs, fmt.Errorf("site.file_name: must be a name, not a path, got %q", s.FileName))
	}

	return errs
}

func validateOutput(o *OutputConfig) []error {
	var errs []error

	if o.JSONDir == "" {
		errs = append(errs, errors.New("output.json_dir: must not be empty"))
	}

	if o.DownloadDir == "" {
		errs = append(errs, errors.New("output.download_dir: must not be empty"))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	if err := checkHTTPURL(n.GraphURL); err != nil {
		errs = append(errs, fmt.Errorf("network.graph_url: %w", err))
	}

	if n.AuthorityURL != "" {
		if err := checkHTTPURL(n.AuthorityURL); err != nil {
			errs = append(errs, fmt.Errorf("network.authority_url: %w", err))
		}
	}

	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		errs = append(errs, fmt.Errorf("network.timeout: invalid duration %q: %w", n.Timeout, err))
	} else if d < minTimeout {
		errs = append(errs, fmt.Errorf("network.timeout: must be at least %s, got %s", minTimeout, d))
	}

	if n.MaxRetries < 0 || n.MaxRetries > maxRetriesLimit {
		errs = append(errs, fmt.Errorf("network.max_retries: must be between 0 and %d, got %d",
			maxRetriesLimit, n.MaxRetries))
	}

	if _, err := ParseRate(n.BandwidthLimit); err != nil {
		errs = append(errs, fmt.Errorf("network.bandwidth_limit: %w", err))
	}

	return errs
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL, got %q", raw)
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	errs := validateOneOf("logging.log_level", l.LogLevel, validLogLevels)
	errs = append(errs, validateOneOf("logging.log_format", l.LogFormat, validLogFormats)...)

	return errs
}

func validateOneOf(name, value string, valid []string) []error {
	if slices.Contains(valid, value) {
		return nil
	}

	return []error{fmt.Errorf("%s: must be one of %s, got %q", name, strings.Join(valid, ", "), value)}
}
