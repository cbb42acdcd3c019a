package config

import (
	"fmt"
	"io"
)

// redacted replaces secrets in rendered output.
const redacted = "(set)"

// RenderEffective writes the resolved configuration as TOML-like text to w.
// The client secret is never printed; only whether it is set.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	secret := `""`
	if cfg.Auth.ClientSecret != "" {
		secret = redacted
	}

	ew.printf("[auth]\n")
	ew.printf("  tenant_id      = %q\n", cfg.Auth.TenantID)
	ew.printf("  client_id      = %q\n", cfg.Auth.ClientID)
	ew.printf("  client_secret  = %s\n", secret)
	ew.printf("  provider       = %q\n", cfg.Auth.Provider)
	ew.printf("  scope          = %q\n\n", cfg.Auth.Scope)

	ew.printf("[site]\n")
	ew.printf("  hostname       = %q\n", cfg.Site.Hostname)
	ew.printf("  site_path      = %q\n", cfg.Site.SitePath)
	ew.printf("  folder         = %q\n", cfg.Site.Folder)
	ew.printf("  file_folder    = %q\n", cfg.Site.FileFolder)
	ew.printf("  file_name      = %q\n\n", cfg.Site.FileName)

	ew.printf("[output]\n")
	ew.printf("  json_dir       = %q\n", cfg.Output.JSONDir)
	ew.printf("  download_dir   = %q\n\n", cfg.Output.DownloadDir)

	ew.printf("[users]\n")
	ew.printf("  source         = %q\n\n", cfg.Users.Source)

	ew.printf("[network]\n")
	ew.printf("  graph_url      = %q\n", cfg.Network.GraphURL)

	if cfg.Network.AuthorityURL != "" {
		ew.printf("  authority_url  = %q\n", cfg.Network.AuthorityURL)
	}

	ew.printf("  timeout        = %q\n", cfg.Network.Timeout)

	if cfg.Network.UserAgent != "" {
		ew.printf("  user_agent     = %q\n", cfg.Network.UserAgent)
	}

	ew.printf("  max_retries    = %d\n", cfg.Network.MaxRetries)
	ew.printf("  bandwidth_limit = %q\n\n", cfg.Network.BandwidthLimit)

	ew.printf("[logging]\n")
	ew.printf("  log_level      = %q\n", cfg.Logging.LogLevel)
	ew.printf("  log_format     = %q\n", cfg.Logging.LogFormat)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Later writes are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Redacted returns a copy of cfg safe to print: the client secret is
// replaced by a marker when set.
func Redacted(cfg *Config) *Config {
	c := *cfg
	if c.Auth.ClientSecret != "" {
		c.Auth.ClientSecret = redacted
	}

	return &c
}
