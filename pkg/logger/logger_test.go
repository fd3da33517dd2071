package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, ConnectorKey, "public/default/es")
	ctx = context.WithValue(ctx, CommandKey, "sink create")

	WithContext(ctx).Info("submitted")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "public/default/es", fields["connector"])
	assert.Equal(t, "sink create", fields["command"])
}

func TestGetFallsBackToDefault(t *testing.T) {
	Set(nil)
	t.Cleanup(func() { Set(nil) })
	assert.NotNil(t, Get())
}
