package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed and records err with attrs.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetOutcome records how a node attempt ended on its span.
func SetOutcome(span trace.Span, status string, attrs ...attribute.KeyValue) {
	span.SetAttributes(append(attrs, attribute.String("convoflow.node.status", status))...)
	span.SetStatus(codes.Ok, "")
}
