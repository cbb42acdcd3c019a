package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal with "did you mean?" suggestions.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("loaded config file", slog.String("path", path))

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file, using defaults", slog.String("path", path))
		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment -> dotenv file -> CLI flags.
// The result is validated; the credential is checked separately by
// ValidateResolved because not every command needs one.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Config, error) {
	// 1. Config path: CLI > env > default. An explicit path must exist.
	cfgPath := DefaultConfigPath()
	explicitCfg := false

	if env.ConfigPath != "" {
		cfgPath, explicitCfg = env.ConfigPath, true
	}

	if cli.ConfigPath != "" {
		cfgPath, explicitCfg = cli.ConfigPath, true
	}

	var (
		cfg *Config
		err error
	)

	if explicitCfg {
		cfg, err = Load(cfgPath, logger)
	} else {
		cfg, err = LoadOrDefault(cfgPath, logger)
	}

	if err != nil {
		return nil, err
	}

	// 2. Dotenv path: CLI > env > ./.env
	envFile := defaultEnvFile
	explicitEnv := false

	if env.EnvFile != "" {
		envFile, explicitEnv = env.EnvFile, true
	}

	if cli.EnvFile != "" {
		envFile, explicitEnv = cli.EnvFile, true
	}

	dotenv, err := readDotEnv(envFile, explicitEnv, logger)
	if err != nil {
		return nil, err
	}

	// 3. Environment, with dotenv values taking precedence.
	applyEnv(cfg, envLookup(dotenv))

	// 4. CLI flags.
	applyCLI(cfg, cli)

	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyCLI(cfg *Config, cli CLIOverrides) {
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	apply(&cfg.Site.Folder, cli.Folder)
	apply(&cfg.Site.FileFolder, cli.FileFolder)
	apply(&cfg.Site.FileName, cli.FileName)
	apply(&cfg.Users.Source, cli.UsersSource)
	apply(&cfg.Output.JSONDir, cli.JSONDir)
	apply(&cfg.Output.DownloadDir, cli.DownloadDir)
}

// normalize reduces a base URL to a bare hostname. A URL that also carries a
// path fills in the site path when none is set, so
// "https://contoso.sharepoint.com/sites/Finance" works on its own.
func normalize(cfg *Config) {
	host := strings.TrimSpace(cfg.Site.Hostname)

	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil && u.Host != "" {
			host = u.Host

			if p := strings.Trim(u.Path, "/"); p != "" && cfg.Site.SitePath == "" {
				cfg.Site.SitePath = p
			}
		}
	}

	cfg.Site.Hostname = strings.TrimRight(host, "/")
	cfg.Site.SitePath = strings.Trim(strings.TrimSpace(cfg.Site.SitePath), "/")
	cfg.Site.FileFolder = strings.Trim(strings.TrimSpace(cfg.Site.FileFolder), "/")
}
