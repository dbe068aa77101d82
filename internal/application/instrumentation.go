package application

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("barbershop-booking/application")

// Metrics receives operation outcomes. Outcome is "success" or an ErrorKind label.
type Metrics interface {
	AuthAttempt(operation, outcome string)
	AvailabilityWrite(outcome string, dates int)
	BookingAttempt(outcome string, lines int)
}

type noopMetrics struct{}

func (noopMetrics) AuthAttempt(string, string) {}
func (noopMetrics) AvailabilityWrite(string, int) {}
func (noopMetrics) BookingAttempt(string, int) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
	}
	span.End()
}
