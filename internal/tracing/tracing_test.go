package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "scissor-test", "test")
	assert.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitInstallsTracerProvider(t *testing.T) {
	// The HTTP exporter connects lazily, so no collector is needed here.
	shutdown, err := Init(context.Background(), "http://localhost:4318", "scissor-test", "test")
	assert.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	// Nothing was recorded, so shutdown flushes an empty batch.
	assert.NoError(t, shutdown(context.Background()))
}

func TestStripProtocol(t *testing.T) {
	assert.Equal(t, "collector:4318", stripProtocol("http://collector:4318"))
	assert.Equal(t, "collector:4318", stripProtocol("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripProtocol("collector:4318"))
}
