package config

// Default values for configuration options: layer 0 of the override chain.
const (
	defaultProvider    = "oauth2"
	defaultScope       = "https://graph.microsoft.com/.default"
	defaultFolder      = "Benchmarking Data"
	defaultFileName    = "test.csv"
	defaultJSONDir     = "./jsons"
	defaultDownloadDir = "./downloads"
	defaultUsersSource = "rest"
	defaultGraphURL    = "https://graph.microsoft.com/v1.0"
	defaultTimeout     = "30s"
	defaultMaxRetries  = 0
	defaultBandwidth   = "0"
	defaultLogLevel    = "info"
	defaultLogFormat   = "auto"
)

// DefaultConfig returns a Config populated with all default values.
// It is the starting point for TOML decoding, so unset fields keep defaults.
func DefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			Provider: defaultProvider,
			Scope:    defaultScope,
		},
		Site: SiteConfig{
			Folder:   defaultFolder,
			FileName: defaultFileName,
		},
		Output: OutputConfig{
			JSONDir:     defaultJSONDir,
			DownloadDir: defaultDownloadDir,
		},
		Users: UsersConfig{
			Source: defaultUsersSource,
		},
		Network: NetworkConfig{
			GraphURL:       defaultGraphURL,
			Timeout:        defaultTimeout,
			MaxRetries:     defaultMaxRetries,
			BandwidthLimit: defaultBandwidth,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
