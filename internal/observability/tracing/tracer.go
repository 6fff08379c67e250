// Package tracing provides OpenTelemetry span instrumentation for the
// HTTP surface and the snapshot build pipeline.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("basket-recs")

// GetTracer returns the application tracer for creating spans outside
// the HTTP middleware, e.g. around a snapshot rebuild.
func GetTracer() trace.Tracer {
	return tracer
}
