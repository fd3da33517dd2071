package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := StartSpan(context.Background(), "noop")
	EndSpan(span, nil)
}

func TestSpansAreExported(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := InitTracing(TracingConfig{
		ServiceName: "nebula-io-test",
		Enabled:     true,
		Exporter:    exporter,
	})
	require.NoError(t, err)

	ctx, parent := StartSpan(context.Background(), "pipeline", attribute.String("kind", "sink"))
	_, child := StartSpan(ctx, "validated")
	EndSpan(child, errors.New("archive missing"))
	EndSpan(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "validated", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, codes.Ok, spans[1].Status.Code)

	headers := map[string]string{}
	InjectHeaders(ctx, headers)
	assert.NotEmpty(t, headers["traceparent"])

	require.NoError(t, shutdown(context.Background()))
}

func TestStdoutExporterWritesToWriter(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{ServiceName: "nebula-io-test", Enabled: true, Writer: &buf})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "loaded")
	EndSpan(span, nil)
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name": "loaded"`)
}
