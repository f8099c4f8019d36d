package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, SKIZZE_CONFIG env, ./config.yaml, /etc/skizze/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. SKIZZE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/skizze/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("SKIZZE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/skizze/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps SKIZZE_* environment variables to config
// fields. Env vars win over the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SKIZZE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SKIZZE_API_KEY"); v != "" {
		cfg.Providers.Default.APIKey = v
	}
	if v := os.Getenv("SKIZZE_BASE_URL"); v != "" {
		cfg.Providers.Default.BaseURL = v
	}
	if v := os.Getenv("SKIZZE_TEMPLATES"); v != "" {
		cfg.Templates.Path = v
	}
	if v := os.Getenv("SKIZZE_GENERATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Generation.Timeout = d
		}
	}
	if v := os.Getenv("SKIZZE_SANDBOX_MODE"); v != "" {
		cfg.Sandbox.Mode = v
	}
	if v := os.Getenv("SKIZZE_SANDBOX_URL"); v != "" {
		cfg.Sandbox.URL = v
	}
	if v := os.Getenv("SKIZZE_SANDBOX_NAMESPACE"); v != "" {
		cfg.Sandbox.Namespace = v
	}
	if v := os.Getenv("SKIZZE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SKIZZE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("SKIZZE_JWKS_URL"); v != "" {
		cfg.Auth.JWT.Enabled = true
		cfg.Auth.JWT.JWKSURL = v
	}
}

// resolveFileReferences reads _file fields and populates the
// corresponding value fields. For each field ending in _file, if the
// value field is empty and the file field is set, the file is read,
// whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	if cfg.Providers.Default.APIKeyFile != "" && cfg.Providers.Default.APIKey == "" {
		val, err := readSecretFile(cfg.Providers.Default.APIKeyFile)
		if err != nil {
			return fmt.Errorf("providers.default.api_key_file: %w", err)
		}
		cfg.Providers.Default.APIKey = val
	}

	for name, ep := range cfg.Providers.Endpoints {
		if ep.APIKeyFile != "" && ep.APIKey == "" {
			val, err := readSecretFile(ep.APIKeyFile)
			if err != nil {
				return fmt.Errorf("providers.endpoints.%s.api_key_file: %w", name, err)
			}
			ep.APIKey = val
			cfg.Providers.Endpoints[name] = ep
		}
	}

	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
