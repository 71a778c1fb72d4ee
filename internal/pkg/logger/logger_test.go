package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithFields_Accumulates(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))

	ctx := WithFields(context.Background(), zap.String("request_id", "r1"))
	ctx = WithFields(ctx, zap.String("session_id", "s1"))

	Infof(ctx, "estimated %s", "茨城県")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "estimated 茨城県", entry.Message)
	assert.Equal(t, "r1", entry.ContextMap()["request_id"])
	assert.Equal(t, "s1", entry.ContextMap()["session_id"])
}

func TestWithFields_DoesNotLeakIntoParent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))

	parent := WithFields(context.Background(), zap.String("a", "1"))
	_ = WithFields(parent, zap.String("b", "2"))

	Warn(parent, "parent")

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "b")
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	err := Init("loud", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestFatal_NilIsNoop(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))

	Fatal(context.Background(), nil)

	assert.Equal(t, 0, logs.Len())
}
