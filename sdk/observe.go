package vai

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/live"
)

// Recorder receives client measurements. *metrics.Metrics implements it.
type Recorder interface {
	live.Recorder
	RecordGeneration(kind, model, status string, duration time.Duration)
	RecordError(component, errorType string)
}

type nopRecorder struct{ live.NopRecorder }

func (nopRecorder) RecordGeneration(string, string, string, time.Duration) {}
func (nopRecorder) RecordError(string, string)                             {}

// observe runs fn inside a "vai.<kind>" span and records its outcome.
func (c *Client) observe(ctx context.Context, kind, model string, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "vai."+kind,
		trace.WithAttributes(
			attribute.String("gen_ai.system", "gemini"),
			attribute.String("gen_ai.request.model", model),
		))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := statusOf(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		c.recorder.RecordError(kind, status)
		c.logger.Warn("generation failed", "kind", kind, "model", model, "error", err)
	}
	c.recorder.RecordGeneration(kind, model, status, time.Since(start))
	return err
}

func statusOf(err error) string {
	if err == nil {
		return "ok"
	}
	if t := core.TypeOf(err); t != "" {
		return string(t)
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return "canceled"
	}
	return "error"
}
