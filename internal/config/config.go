// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for sharepoint-go. Values pass through a
// five-layer override chain: defaults -> config file -> environment ->
// dotenv file -> CLI flags.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Auth    AuthConfig    `toml:"auth" json:"auth"`
	Site    SiteConfig    `toml:"site" json:"site"`
	Output  OutputConfig  `toml:"output" json:"output"`
	Users   UsersConfig   `toml:"users" json:"users"`
	Network NetworkConfig `toml:"network" json:"network"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// AuthConfig holds the service principal and how its token is obtained.
// The secret is never rendered or logged.
type AuthConfig struct {
	TenantID     string `toml:"tenant_id" json:"tenant_id"`
	ClientID     string `toml:"client_id" json:"client_id"`
	ClientSecret string `toml:"client_secret" json:"client_secret"`
	Provider     string `toml:"provider" json:"provider"`
	Scope        string `toml:"scope" json:"scope"`
}

// SiteConfig names the site, folder and file the export pipeline targets.
// Hostname is bare ("contoso.sharepoint.com"); a scheme is stripped during
// resolution. Folder is the folder whose listing is exported; FileFolder is
// where FileName lives, "" for the drive root.
type SiteConfig struct {
	Hostname   string `toml:"hostname" json:"hostname"`
	SitePath   string `toml:"site_path" json:"site_path"`
	Folder     string `toml:"folder" json:"folder"`
	FileFolder string `toml:"file_folder" json:"file_folder"`
	FileName   string `toml:"file_name" json:"file_name"`
}

// OutputConfig controls where JSON snapshots and downloads are written.
type OutputConfig struct {
	JSONDir     string `toml:"json_dir" json:"json_dir"`
	DownloadDir string `toml:"download_dir" json:"download_dir"`
}

// UsersConfig picks the user lister: the plain REST client or the SDK.
type UsersConfig struct {
	Source string `toml:"source" json:"source"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	GraphURL     string `toml:"graph_url" json:"graph_url"`
	AuthorityURL string `toml:"authority_url" json:"authority_url"`
	Timeout      string `toml:"timeout" json:"timeout"`
	UserAgent    string `toml:"user_agent" json:"user_agent"`
	MaxRetries   int    `toml:"max_retries" json:"max_retries"`

	// BandwidthLimit caps download throughput, e.g. "5MB/s". "0" is unlimited.
	BandwidthLimit string `toml:"bandwidth_limit" json:"bandwidth_limit"`
}

// TimeoutDuration returns the parsed request timeout. Call only on a
// validated config; an unparsable value yields the default.
func (n NetworkConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(n.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultTimeout)
	}

	return d
}

// LoggingConfig controls log output: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level" json:"log_level"`
	LogFormat string `toml:"log_format" json:"log_format"`
}

// CLIOverrides holds values from CLI flags. Pointer fields distinguish
// "not specified" (nil) from "explicitly set to the zero value".
type CLIOverrides struct {
	ConfigPath  string // --config flag (empty = use default)
	EnvFile     string // --env-file flag (empty = use default)
	Folder      *string
	FileFolder  *string
	FileName    *string
	UsersSource *string
	JSONDir     *string
	DownloadDir *string
}
