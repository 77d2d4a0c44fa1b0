package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBCounterLifecycle(t *testing.T) {
	ctx := WithDBCounter(context.Background())

	assert.Equal(t, int64(0), GetDBCounter(ctx))

	IncrementDBCounter(ctx)
	IncrementDBCounter(ctx)
	assert.Equal(t, int64(2), GetDBCounter(ctx))

	AddDBElapsed(ctx, 1500)
	AddDBElapsed(ctx, 500)
	assert.Equal(t, int64(2000), GetDBElapsed(ctx))
}

func TestDBCounterWithoutSetup(t *testing.T) {
	ctx := context.Background()

	// Contexts without the counter are silently ignored.
	IncrementDBCounter(ctx)
	AddDBElapsed(ctx, 100)

	assert.Equal(t, int64(0), GetDBCounter(ctx))
	assert.Equal(t, int64(0), GetDBElapsed(ctx))
}

func TestDBCounterIsSharedAcrossDerivedContexts(t *testing.T) {
	parent := WithDBCounter(context.Background())
	child := context.WithValue(parent, contextKey("unrelated"), "x")

	IncrementDBCounter(child)
	assert.Equal(t, int64(1), GetDBCounter(parent))
}
