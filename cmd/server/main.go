// Command server runs the skizze generation and artifact gateway.
//
// Configuration is layered: built-in defaults, a discovered YAML config
// file (or SKIZZE_CONFIG), then SKIZZE_-prefixed environment variable
// overrides. See pkg/config for the full surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/skizzehq/skizze/pkg/auth"
	"github.com/skizzehq/skizze/pkg/auth/jwt"
	"github.com/skizzehq/skizze/pkg/config"
	"github.com/skizzehq/skizze/pkg/generate"
	"github.com/skizzehq/skizze/pkg/provider"
	"github.com/skizzehq/skizze/pkg/provider/openaicompat"
	"github.com/skizzehq/skizze/pkg/sandbox"
	"github.com/skizzehq/skizze/pkg/sandbox/kubernetes"
	"github.com/skizzehq/skizze/pkg/storage"
	"github.com/skizzehq/skizze/pkg/storage/memory"
	"github.com/skizzehq/skizze/pkg/storage/postgres"
	"github.com/skizzehq/skizze/pkg/template"
	transporthttp "github.com/skizzehq/skizze/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	registry, err := template.Load(cfg.Templates.Path)
	if err != nil {
		return fmt.Errorf("loading template catalog: %w", err)
	}
	slog.Info("template catalog loaded", "path", cfg.Templates.Path, "templates", registry.Len())

	// Provider endpoints: per-provider entries over process defaults.
	endpoints := make(map[string]provider.Endpoint, len(cfg.Providers.Endpoints))
	for id, ep := range cfg.Providers.Endpoints {
		endpoints[id] = provider.Endpoint{APIKey: ep.APIKey, BaseURL: ep.BaseURL}
	}
	resolver := provider.NewResolver(endpoints, provider.Endpoint{
		APIKey:  cfg.Providers.Default.APIKey,
		BaseURL: cfg.Providers.Default.BaseURL,
	}, func(providerID string, ep provider.Endpoint) provider.Provider {
		return openaicompat.New(providerID, openaicompat.Config{
			BaseURL: ep.BaseURL,
			APIKey:  ep.APIKey,
		})
	})

	orchestrator := generate.New(resolver, registry, cfg.Generation.Timeout)
	creator := generate.NewCreator(orchestrator)

	provisioner, err := buildProvisioner(cfg, registry)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	server := transporthttp.NewServer(creator, provisioner, store, cfg.Models,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithAuth(buildAuthChain(cfg)),
		serverMetricsOption(cfg),
	)

	return server.ListenAndServe()
}

// buildProvisioner selects the sandbox backend from configuration.
func buildProvisioner(cfg *config.Config, registry *template.Registry) (*sandbox.Provisioner, error) {
	var creator sandbox.EnvironmentCreator

	switch cfg.Sandbox.Mode {
	case "static":
		c, err := sandbox.NewStaticCreator(cfg.Sandbox.URL)
		if err != nil {
			return nil, fmt.Errorf("configuring static sandbox: %w", err)
		}
		creator = c
		slog.Info("sandbox backend", "mode", "static", "url", cfg.Sandbox.URL)

	case "kubernetes":
		scheme, err := kubernetes.NewScheme()
		if err != nil {
			return nil, fmt.Errorf("building scheme: %w", err)
		}
		restCfg, err := ctrlconfig.GetConfig()
		if err != nil {
			return nil, fmt.Errorf("loading kubeconfig: %w", err)
		}
		cl, err := client.New(restCfg, client.Options{Scheme: scheme})
		if err != nil {
			return nil, fmt.Errorf("creating kubernetes client: %w", err)
		}
		creator = kubernetes.NewClaimCreator(cl, cfg.Sandbox.Namespace, cfg.Sandbox.ProvisionTimeout)
		slog.Info("sandbox backend", "mode", "kubernetes", "namespace", cfg.Sandbox.Namespace)

	default:
		return nil, fmt.Errorf("unknown sandbox mode %q", cfg.Sandbox.Mode)
	}

	return sandbox.NewProvisioner(creator, sandbox.NewClient(), registry,
		cfg.Sandbox.Lifetime, cfg.Sandbox.ProvisionTimeout), nil
}

// buildStore selects the artifact store backend from configuration.
func buildStore(cfg *config.Config) (storage.ArtifactStore, error) {
	switch cfg.Storage.Type {
	case "memory":
		slog.Info("artifact store", "type", "memory")
		return memory.New(), nil

	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("artifact store", "type", "postgres", "max_conns", cfg.Storage.Postgres.MaxConns)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// buildAuthChain assembles the identity resolution chain. Order
// matters: the bearer-token authenticator runs before the fingerprint
// one, so an authenticated identity wins when both credentials are
// present on the same request.
func buildAuthChain(cfg *config.Config) *auth.Chain {
	var authenticators []auth.Authenticator

	if cfg.Auth.JWT.Enabled {
		authenticators = append(authenticators, jwt.New(jwt.Config{
			Issuer:   cfg.Auth.JWT.Issuer,
			Audience: cfg.Auth.JWT.Audience,
			JWKSURL:  cfg.Auth.JWT.JWKSURL,
		}))
		slog.Info("jwt authentication enabled", "issuer", cfg.Auth.JWT.Issuer)
	}

	authenticators = append(authenticators, &auth.FingerprintAuthenticator{})

	return &auth.Chain{Authenticators: authenticators}
}

func serverMetricsOption(cfg *config.Config) transporthttp.ServerOption {
	if !cfg.Observability.Metrics.Enabled {
		return func(*transporthttp.Server) {}
	}
	return transporthttp.WithMetrics(cfg.Observability.Metrics.Path)
}
