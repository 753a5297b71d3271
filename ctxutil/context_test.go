package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetTraceID(ctx))

	same, again := EnsureTraceID(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
}

func TestGetTraceID_Missing(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetTraceID(nil)) //nolint:staticcheck
}

func TestWithAsyncContext_DetachesCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(SetTraceID(context.Background(), "t-1"))
	ctx, cancel := WithAsyncContext(parent, 50*time.Millisecond)
	defer cancel()

	cancelParent()
	assert.NoError(t, ctx.Err())
	assert.Equal(t, "t-1", GetTraceID(ctx))

	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}
