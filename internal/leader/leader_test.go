package leader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGateAcquiresFreeLock(t *testing.T) {
	client := newTestClient(t)
	gate := New(client, "test:leader", time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		gate.Run(ctx, func() { acquired.Store(true) }, func() {})
		close(done)
	}()

	assert.Eventually(t, acquired.Load, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("gate did not return after cancellation")
	}
}

func TestGateMutualExclusion(t *testing.T) {
	client := newTestClient(t)

	first := New(client, "test:leader", time.Second, nil)
	second := New(client, "test:leader", time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var firstUp, secondUp atomic.Bool
	go first.Run(ctx, func() { firstUp.Store(true) }, func() {})
	assert.Eventually(t, firstUp.Load, 2*time.Second, 5*time.Millisecond)

	go second.Run(ctx, func() { secondUp.Store(true) }, func() {})
	time.Sleep(100 * time.Millisecond)
	assert.False(t, secondUp.Load(), "second gate must not acquire a held lock")
}

func TestGateReleaseHandsOverLock(t *testing.T) {
	client := newTestClient(t)

	first := New(client, "test:leader", time.Second, nil)
	second := New(client, "test:leader", time.Second, nil)
	second.retry = 10 * time.Millisecond

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var firstUp, secondUp atomic.Bool
	firstDone := make(chan struct{})
	go func() {
		first.Run(firstCtx, func() { firstUp.Store(true) }, func() {})
		close(firstDone)
	}()
	assert.Eventually(t, firstUp.Load, 2*time.Second, 5*time.Millisecond)

	go second.Run(ctx, func() { secondUp.Store(true) }, func() {})

	// the released lock is picked up on the second gate's retry cadence
	cancelFirst()
	<-firstDone
	assert.Eventually(t, secondUp.Load, 2*time.Second, 5*time.Millisecond)
}

func TestGateReturnsWhenCancelledBeforeAcquisition(t *testing.T) {
	client := newTestClient(t)

	holder := New(client, "test:leader", time.Minute, nil)
	waiter := New(client, "test:leader", time.Minute, nil)

	holdCtx, cancelHold := context.WithCancel(context.Background())
	defer cancelHold()

	var held atomic.Bool
	go holder.Run(holdCtx, func() { held.Store(true) }, func() {})
	assert.Eventually(t, held.Load, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		waiter.Run(ctx, func() { t.Error("waiter must not acquire") }, func() {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not return after cancellation")
	}
}
