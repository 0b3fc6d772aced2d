package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownCancels(t *testing.T) {
	ctx, cancel := NotifyShutdown(context.Background())

	Shutdown(ctx, "test", cancel)

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestNotifyShutdownFollowsParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := NotifyShutdown(parent)
	defer cancel()

	cancelParent()
	assert.Eventually(t, func() bool { return ctx.Err() != nil }, time.Second, 10*time.Millisecond)
}
