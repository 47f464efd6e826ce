package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("x"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "heliraid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no writer or endpoint")
}

func TestNew_LogWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "heliraid",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_MetricWriterExportsOnFlush(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "heliraid",
		MetricWriter:   &buf,
		MetricInterval: time.Hour,
	})
	require.NoError(t, err)
	assert.Nil(t, p.LoggerProvider())

	counter, err := otel.Meter("test").Int64Counter("missiles.fired")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "missiles.fired")
	assert.Contains(t, buf.String(), "heliraid")

	require.NoError(t, p.Shutdown(context.Background()))
}
