package generate

import (
	"context"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/observability"
	"github.com/skizzehq/skizze/pkg/transport"
)

// Creator adapts the orchestrator to the transport handler contract:
// it forwards every stream event to the writer as it arrives and
// records generation metrics per call.
type Creator struct {
	orchestrator *Orchestrator
}

var _ transport.FragmentCreator = (*Creator)(nil)

// NewCreator wraps the orchestrator for use by the transport layer.
func NewCreator(o *Orchestrator) *Creator {
	return &Creator{orchestrator: o}
}

// CreateFragment runs one generation call and relays its events. A
// startup error (invalid request, backend rejection) is returned to the
// transport layer before anything is streamed; once events flow, the
// stream itself carries the terminal outcome.
func (c *Creator) CreateFragment(ctx context.Context, req *api.CreateFragmentRequest, w transport.StreamWriter) error {
	start := time.Now()

	events, err := c.orchestrator.Stream(ctx, req)
	if err != nil {
		observability.GenerationsTotal.WithLabelValues(req.Model.Provider, req.Model.ID, "error").Inc()
		return err
	}

	status := "success"
	for ev := range events {
		if ev.Type == api.EventFragmentFailed {
			status = "error"
		}
		if werr := w.WriteEvent(ctx, ev); werr != nil {
			// Client gone; drain the channel so the producer can exit.
			for range events {
			}
			status = "error"
			break
		}
	}

	observability.GenerationsTotal.WithLabelValues(req.Model.Provider, req.Model.ID, status).Inc()
	observability.GenerationDuration.WithLabelValues(req.Model.Provider, req.Model.ID).Observe(time.Since(start).Seconds())
	return nil
}
