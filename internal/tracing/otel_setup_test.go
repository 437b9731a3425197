package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracerProvider_Disabled(t *testing.T) {
	shutdown, err := InitTracerProvider(Options{ServiceName: "shelf-service"})
	require.NoError(t, err)

	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInitTracerProvider_Enabled(t *testing.T) {
	// grpc.NewClient dials lazily, so no collector has to be listening.
	shutdown, err := InitTracerProvider(Options{
		ServiceName: "shelf-service",
		Enabled:     true,
		Endpoint:    "127.0.0.1:4317",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
