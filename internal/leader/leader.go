// Package leader gates metric publishing behind a fleet-wide Redis lock so
// only one worker process emits the (identical) cluster metrics. Processes
// without the lock stay silent; when the holder dies its TTL expires and
// another process takes over.
package leader

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Gate competes for one named lock and reports acquisition and loss.
type Gate struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
	log    *zap.Logger
}

// New creates a gate for key with the given lock TTL. The gate retries
// acquisition on a TTL cadence and refreshes a held lock at TTL/3.
func New(client redis.UniversalClient, key string, ttl time.Duration, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		locker: redislock.New(client),
		key:    key,
		ttl:    ttl,
		retry:  ttl,
		log:    log,
	}
}

// Run blocks until leadership is acquired, fires onAcquired, then holds the
// lock by refreshing it. It returns when ctx is cancelled (releasing the
// lock) or when a refresh fails, in which case onLost fires first.
// Leadership is not re-acquired after a loss: the publisher lifecycle is
// one-shot, so a lost leader quiesces and lets another process take over.
func (g *Gate) Run(ctx context.Context, onAcquired func(), onLost func()) {
	lock, ok := g.acquire(ctx)
	if !ok {
		return
	}
	g.log.Info("leadership acquired", zap.String("lock_key", g.key))
	onAcquired()

	refresh := time.NewTicker(g.ttl / 3)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := lock.Release(releaseCtx); err != nil {
				g.log.Warn("releasing leader lock failed", zap.Error(err))
			}
			cancel()
			return
		case <-refresh.C:
			if err := lock.Refresh(ctx, g.ttl, nil); err != nil {
				g.log.Warn("leadership lost", zap.String("lock_key", g.key), zap.Error(err))
				onLost()
				return
			}
		}
	}
}

// acquire retries until the lock is obtained or ctx is cancelled.
func (g *Gate) acquire(ctx context.Context) (*redislock.Lock, bool) {
	for {
		lock, err := g.locker.Obtain(ctx, g.key, g.ttl, nil)
		if err == nil {
			return lock, true
		}
		if !errors.Is(err, redislock.ErrNotObtained) {
			g.log.Warn("obtaining leader lock failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(g.retry):
		}
	}
}
