package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tradedash"

// Span wraps an OpenTelemetry span with the small API the handlers use.
type Span struct {
	span trace.Span
}

// StartSpan starts a child of any span already in ctx. Without an installed
// tracer provider the span is a no-op.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, operation)
	return ctx, &Span{span: span}
}

func (s *Span) Finish() {
	s.span.End()
}

func (s *Span) SetTag(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s *Span) SetInt(key string, value int) {
	s.span.SetAttributes(attribute.Int(key, value))
}

func (s *Span) SetError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Error, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace id of the span in ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// InstallTracerProvider makes an SDK tracer provider the global one so
// spans get real trace ids. The caller owns Shutdown.
func InstallTracerProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}, opts...)
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp
}
