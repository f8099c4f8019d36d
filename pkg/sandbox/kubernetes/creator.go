// Package kubernetes provides an EnvironmentCreator that provisions
// sandboxes through agent-sandbox SandboxClaim CRDs.
package kubernetes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sandboxv1alpha1 "sigs.k8s.io/agent-sandbox/api/v1alpha1"
	extensionsv1alpha1 "sigs.k8s.io/agent-sandbox/extensions/api/v1alpha1"

	"github.com/skizzehq/skizze/pkg/sandbox"
)

// lifetimeAnnotation records the requested environment lifetime on the
// claim. Enforcement is the sandbox controller's job.
const lifetimeAnnotation = "skizze.dev/lifetime"

// controlPort is the port the in-sandbox control API listens on.
const controlPort = 8080

var _ sandbox.EnvironmentCreator = (*ClaimCreator)(nil)

// ClaimCreator implements EnvironmentCreator by creating SandboxClaim
// CRDs. Each call to Create submits a claim referencing the execution
// template, waits for the corresponding Sandbox to become ready, and
// returns an environment addressed by the Sandbox's serviceFQDN.
type ClaimCreator struct {
	client       client.Client
	namespace    string
	readyTimeout time.Duration
}

// NewClaimCreator creates a ClaimCreator. readyTimeout bounds how long
// one Create call waits for a Sandbox to become ready.
func NewClaimCreator(c client.Client, namespace string, readyTimeout time.Duration) *ClaimCreator {
	return &ClaimCreator{
		client:       c,
		namespace:    namespace,
		readyTimeout: readyTimeout,
	}
}

// NewScheme returns a runtime.Scheme with the agent-sandbox types
// registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := sandboxv1alpha1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("register sandbox types: %w", err)
	}
	if err := extensionsv1alpha1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("register extensions types: %w", err)
	}
	return scheme, nil
}

// Create submits a SandboxClaim for the template and waits for the
// Sandbox to become ready. A claim that never becomes ready is deleted
// before the error is returned; a ready environment is never torn down
// here and expires through its template's lifetime settings.
func (c *ClaimCreator) Create(ctx context.Context, templateID string, lifetime time.Duration) (*sandbox.Environment, error) {
	claimName := generateClaimNameFn(templateID)

	claim := &extensionsv1alpha1.SandboxClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      claimName,
			Namespace: c.namespace,
			Annotations: map[string]string{
				lifetimeAnnotation: lifetime.String(),
			},
		},
		Spec: extensionsv1alpha1.SandboxClaimSpec{
			TemplateRef: extensionsv1alpha1.SandboxTemplateRef{
				Name: templateID,
			},
		},
	}

	if err := c.client.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create SandboxClaim %q: %w", claimName, err)
	}

	slog.Debug("created SandboxClaim", "name", claimName, "namespace", c.namespace, "template", templateID)

	serviceFQDN, err := c.waitForReady(ctx, claimName)
	if err != nil {
		c.deleteClaim(context.Background(), claimName)
		return nil, err
	}

	env := &sandbox.Environment{
		ID:         claimName,
		Host:       serviceFQDN,
		ControlURL: fmt.Sprintf("http://%s:%d", serviceFQDN, controlPort),
	}

	slog.Debug("sandbox ready", "name", claimName, "host", env.Host)
	return env, nil
}

// waitForReady polls the Sandbox resource until its Ready condition is
// True or the timeout expires.
func (c *ClaimCreator) waitForReady(ctx context.Context, sandboxName string) (string, error) {
	deadline := time.After(c.readyTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled waiting for Sandbox %q: %w", sandboxName, ctx.Err())
		case <-deadline:
			return "", fmt.Errorf("timeout waiting for Sandbox %q to become ready (waited %s)", sandboxName, c.readyTimeout)
		case <-ticker.C:
			sb := &sandboxv1alpha1.Sandbox{}
			key := types.NamespacedName{Name: sandboxName, Namespace: c.namespace}
			if err := c.client.Get(ctx, key, sb); err != nil {
				// Sandbox may not exist yet (controller hasn't created
				// it). Keep polling.
				slog.Debug("waiting for Sandbox", "name", sandboxName, "error", err.Error())
				continue
			}

			if isReady(sb) {
				if sb.Status.ServiceFQDN == "" {
					continue // Ready but FQDN not yet populated.
				}
				return sb.Status.ServiceFQDN, nil
			}
		}
	}
}

// isReady checks if the Sandbox has a Ready condition set to True.
func isReady(sb *sandboxv1alpha1.Sandbox) bool {
	for _, cond := range sb.Status.Conditions {
		if cond.Type == string(sandboxv1alpha1.SandboxConditionReady) && cond.Status == metav1.ConditionTrue {
			return true
		}
	}
	return false
}

// deleteClaim deletes a SandboxClaim. Errors are logged but not
// returned since this runs on cleanup paths only.
func (c *ClaimCreator) deleteClaim(ctx context.Context, name string) {
	claim := &extensionsv1alpha1.SandboxClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: c.namespace,
		},
	}
	if err := c.client.Delete(ctx, claim); err != nil {
		slog.Warn("failed to delete SandboxClaim", "name", name, "namespace", c.namespace, "error", err.Error())
		return
	}
	slog.Debug("deleted SandboxClaim", "name", name, "namespace", c.namespace)
}

// generateClaimNameFn creates a unique name for a SandboxClaim.
// Replaceable in tests for deterministic naming.
var generateClaimNameFn = func(templateID string) string {
	return fmt.Sprintf("skizze-%s-%d", templateID, time.Now().UnixNano())
}
