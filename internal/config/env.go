package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvConfig  = "SHAREPOINT_GO_CONFIG"
	EnvEnvFile = "SHAREPOINT_GO_ENV_FILE"

	EnvTenantID       = "AZURE_TENANT_ID"
	EnvClientID       = "AZURE_CLIENT_ID"
	EnvClientSecret   = "AZURE_CLIENT_SECRET"
	EnvBaseURL        = "SHAREPOINT_BASE_URL"
	EnvSitePath       = "SHAREPOINT_SITE_PATH"
	EnvLegacySitePath = "SHAREPOINT_SYSTEMTWO_SITE_PATH"
)

// defaultEnvFile is read from the working directory when present.
const defaultEnvFile = ".env"

// EnvOverrides holds the locations of the config and dotenv files, read from
// the environment before anything else is loaded.
type EnvOverrides struct {
	ConfigPath string // SHAREPOINT_GO_CONFIG
	EnvFile    string // SHAREPOINT_GO_ENV_FILE
}

// ReadEnvOverrides reads the file-location variables.
func ReadEnvOverrides(logger *slog.Logger) EnvOverrides {
	o := EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		EnvFile:    os.Getenv(EnvEnvFile),
	}

	if o.ConfigPath != "" {
		logger.Debug("config path from environment", slog.String("path", o.ConfigPath))
	}

	if o.EnvFile != "" {
		logger.Debug("env file from environment", slog.String("path", o.EnvFile))
	}

	return o
}

// lookupFunc resolves a variable name to its value.
type lookupFunc func(key string) (string, bool)

// envLookup layers dotenv values over the process environment: a key in the
// dotenv file wins over the same key in the environment.
func envLookup(dotenv map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := dotenv[key]; ok {
			return v, true
		}

		return os.LookupEnv(key)
	}
}

// readDotEnv parses the dotenv file at path. A missing file is only an error
// when the path was chosen explicitly.
func readDotEnv(path string, explicit bool, logger *slog.Logger) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			logger.Debug("no env file", slog.String("path", path))
			return nil, nil
		}

		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	logger.Debug("loaded env file",
		slog.String("path", path),
		slog.Int("keys", len(vals)),
	)

	return vals, nil
}

// applyEnv copies recognized variables into cfg. Empty values are ignored.
func applyEnv(cfg *Config, lookup lookupFunc) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Auth.TenantID, EnvTenantID)
	set(&cfg.Auth.ClientID, EnvClientID)
	set(&cfg.Auth.ClientSecret, EnvClientSecret)
	set(&cfg.Site.Hostname, EnvBaseURL)
	set(&cfg.Site.SitePath, EnvSitePath, EnvLegacySitePath)
}
