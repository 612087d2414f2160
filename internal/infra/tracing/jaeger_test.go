package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_WithoutEndpoint(t *testing.T) {
	tp, err := InitTracer(context.Background(), "", "frame-sampler-test")
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "probe")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
}
