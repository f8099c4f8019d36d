package sandbox

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/observability"
	"github.com/skizzehq/skizze/pkg/template"
)

const (
	// DefaultLifetime is how long a created environment lives before
	// its backend reclaims it, regardless of what the fragment does.
	DefaultLifetime = 10 * time.Minute

	// DefaultTimeout bounds one whole provisioning attempt. It is
	// independent of the environment lifetime and of the generation
	// ceiling; the three do not coordinate.
	DefaultTimeout = 60 * time.Second
)

// Provisioner turns a validated Fragment into a running, reachable
// deployment. Steps are strictly sequential and fail-fast: any step
// failure aborts the attempt with a single provisioning error, and an
// already created environment is left to expire via its lifetime
// rather than torn down.
type Provisioner struct {
	creator  EnvironmentCreator
	runner   Runner
	registry *template.Registry
	lifetime time.Duration
	timeout  time.Duration
}

// NewProvisioner creates a provisioner. Zero lifetime or timeout
// selects the defaults.
func NewProvisioner(creator EnvironmentCreator, runner Runner, registry *template.Registry, lifetime, timeout time.Duration) *Provisioner {
	if lifetime == 0 {
		lifetime = DefaultLifetime
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Provisioner{
		creator:  creator,
		runner:   runner,
		registry: registry,
		lifetime: lifetime,
		timeout:  timeout,
	}
}

// Provision executes the provisioning steps for one fragment and
// returns the execution result. The caller never receives a partial
// result: any failure surfaces as a single provisioning error.
func (p *Provisioner) Provision(ctx context.Context, frag *api.Fragment) (*api.ExecutionResult, error) {
	tmpl, ok := p.registry.Get(frag.TemplateID)
	if !ok {
		return nil, api.NewProvisioningError("unknown template " + frag.TemplateID)
	}
	if verr := api.ValidateFragment(frag, &tmpl); verr != nil {
		return nil, api.NewProvisioningError(verr.Message)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		observability.ProvisionDuration.WithLabelValues(tmpl.ID).Observe(time.Since(start).Seconds())
	}()

	env, err := p.creator.Create(ctx, tmpl.ID, p.lifetime)
	if err != nil {
		observability.SandboxCreationsTotal.WithLabelValues(tmpl.ID, "error").Inc()
		slog.Error("sandbox creation failed", "template", tmpl.ID, "error", err.Error())
		return nil, api.NewProvisioningError("sandbox creation failed: " + err.Error())
	}
	observability.SandboxCreationsTotal.WithLabelValues(tmpl.ID, "success").Inc()

	slog.Info("sandbox created",
		"sandbox_id", env.ID,
		"template", tmpl.ID,
		"lifetime", p.lifetime.String(),
	)

	if frag.HasAdditionalDependencies {
		if _, err := p.runner.RunCommand(ctx, env, frag.InstallCommand); err != nil {
			// The environment is not torn down here; its lifetime
			// reclaims it.
			slog.Error("dependency install failed",
				"sandbox_id", env.ID,
				"command", frag.InstallCommand,
				"error", err.Error(),
			)
			return nil, api.NewProvisioningError("dependency install failed: " + err.Error())
		}
	}

	if err := p.runner.WriteFile(ctx, env, frag.FilePath, frag.Code); err != nil {
		slog.Error("fragment write failed",
			"sandbox_id", env.ID,
			"path", frag.FilePath,
			"error", err.Error(),
		)
		return nil, api.NewProvisioningError("fragment write failed: " + err.Error())
	}

	result := &api.ExecutionResult{
		SandboxID:  env.ID,
		TemplateID: tmpl.ID,
		URL:        previewURL(env.Host, frag, &tmpl),
	}

	slog.Info("fragment provisioned", "sandbox_id", env.ID, "url", result.URL)
	return result, nil
}

// previewURL derives the externally reachable URL from the environment
// host and the fragment's port. The default port 80 is omitted from
// the URL.
func previewURL(host string, frag *api.Fragment, tmpl *api.Template) string {
	port := 80
	switch {
	case frag.Port != nil:
		port = *frag.Port
	case tmpl.Port != 0:
		port = tmpl.Port
	}

	u := "https://" + host
	if port != 80 {
		u += ":" + strconv.Itoa(port)
	}
	return u
}
