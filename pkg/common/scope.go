// Package common carries the request scope: a span plus a trace-tagged
// logger, threaded through handler and session code by explicit
// argument rather than a global registry.
package common

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	traceIDLogField = "traceID"
	tracerName      = "idle-season"
)

// Scope combines the span and logger for one unit of work.
type Scope struct {
	Ctx     context.Context
	TraceID string
	span    oteltrace.Span
	Log     *log.Entry
}

// NewScope starts a span under the incoming context, continuing a
// remote trace when propagation headers carried one.
func NewScope(ctx context.Context, name string) *Scope {
	tracer := otel.Tracer(tracerName)
	tracerCtx, span := tracer.Start(ctx, name)
	traceID := span.SpanContext().TraceID().String()

	return &Scope{
		Ctx:     tracerCtx,
		TraceID: traceID,
		span:    span,
		Log:     log.WithField(traceIDLogField, traceID),
	}
}

// Finish ends the scope's span.
func (s *Scope) Finish() {
	s.span.End()
}

// TraceEvent records a human-readable event on the span.
func (s *Scope) TraceEvent(message string) {
	s.span.AddEvent(message)
}

// TraceError records an error and marks the span failed.
func (s *Scope) TraceError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute tags the span with a string attribute.
func (s *Scope) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// NewChildScope starts a nested span sharing this scope's trace.
func (s *Scope) NewChildScope(name string) *Scope {
	tracer := s.span.TracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(s.Ctx, name)

	return &Scope{
		Ctx:     ctx,
		TraceID: s.TraceID,
		span:    span,
		Log:     s.Log,
	}
}
