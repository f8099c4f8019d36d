// Package config provides unified configuration for the skizze server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SKIZZE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/skizzehq/skizze/pkg/api"
)

// Config holds all configuration for the skizze server.
type Config struct {
	Server        ServerConfig          `yaml:"server"`
	Generation    GenerationConfig      `yaml:"generation"`
	Providers     ProvidersConfig       `yaml:"providers"`
	Models        []api.ModelDescriptor `yaml:"models"`
	Templates     TemplatesConfig       `yaml:"templates"`
	Sandbox       SandboxConfig         `yaml:"sandbox"`
	Storage       StorageConfig         `yaml:"storage"`
	Auth          AuthConfig            `yaml:"auth"`
	Observability ObservabilityConfig   `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 600s, must exceed the generation ceiling
}

// GenerationConfig holds generation call settings.
type GenerationConfig struct {
	// Timeout is the wall-clock ceiling for one generation call.
	Timeout time.Duration `yaml:"timeout"` // default: 300s
}

// ProvidersConfig holds inference provider endpoints.
type ProvidersConfig struct {
	// Default fills in fields a provider entry leaves empty.
	Default EndpointConfig `yaml:"default"`

	// Endpoints maps provider id to its connection settings.
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig holds the connection settings for one provider.
type EndpointConfig struct {
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
	BaseURL    string `yaml:"base_url"`
}

// TemplatesConfig locates the execution template catalog.
type TemplatesConfig struct {
	Path string `yaml:"path"` // default: "templates.yaml"
}

// SandboxConfig holds sandbox provisioning settings.
type SandboxConfig struct {
	Mode             string        `yaml:"mode"`              // "static" or "kubernetes", default: "static"
	URL              string        `yaml:"url"`               // sandbox server URL for mode=static
	Namespace        string        `yaml:"namespace"`         // claim namespace for mode=kubernetes, default: "default"
	Lifetime         time.Duration `yaml:"lifetime"`          // default: 10m
	ProvisionTimeout time.Duration `yaml:"provision_timeout"` // default: 60s
}

// StorageConfig holds artifact store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"` // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// AuthConfig holds identity resolution settings.
type AuthConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig holds bearer-token validation settings. When disabled only
// fingerprint identity is resolved.
type JWTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 600 * time.Second,
		},
		Generation: GenerationConfig{
			Timeout: 300 * time.Second,
		},
		Templates: TemplatesConfig{
			Path: "templates.yaml",
		},
		Sandbox: SandboxConfig{
			Mode:             "static",
			Namespace:        "default",
			Lifetime:         10 * time.Minute,
			ProvisionTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
