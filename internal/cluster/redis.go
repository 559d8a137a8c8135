package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSource reads the cluster registry that Sidekiq-compatible workers
// maintain in Redis: stat counters, the queues set with one list per queue,
// the schedule/retry/dead sorted sets, and one hash per live process.
type RedisSource struct {
	client redis.UniversalClient
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

// NewRedisSource creates a source over client. namespace, when non-empty,
// is prepended to every key as "<namespace>:".
func NewRedisSource(client redis.UniversalClient, namespace string, log *zap.Logger) *RedisSource {
	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSource{
		client: client,
		prefix: prefix,
		log:    log,
		now:    time.Now,
	}
}

func (s *RedisSource) key(name string) string {
	return s.prefix + name
}

// Snapshot reads one full view of the cluster. Missing keys read as zero;
// a malformed process entry is skipped with a warning rather than failing
// the whole snapshot, since processes deregister concurrently with our reads.
func (s *RedisSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Queues:         map[string]int64{},
		QueueLatencies: map[string]float64{},
	}

	var err error
	if snap.Processed, err = s.statCounter(ctx, "stat:processed"); err != nil {
		return nil, err
	}
	if snap.Failed, err = s.statCounter(ctx, "stat:failed"); err != nil {
		return nil, err
	}
	if snap.ScheduledSize, err = s.setSize(ctx, "schedule"); err != nil {
		return nil, err
	}
	if snap.RetrySize, err = s.setSize(ctx, "retry"); err != nil {
		return nil, err
	}
	if snap.DeadSize, err = s.setSize(ctx, "dead"); err != nil {
		return nil, err
	}

	queues, err := s.client.SMembers(ctx, s.key("queues")).Result()
	if err != nil {
		return nil, fmt.Errorf("read queues set: %w", err)
	}
	sort.Strings(queues)
	for _, q := range queues {
		size, err := s.client.LLen(ctx, s.key("queue:"+q)).Result()
		if err != nil {
			return nil, fmt.Errorf("read size of queue %s: %w", q, err)
		}
		snap.Queues[q] = size
		snap.Enqueued += size

		latency, err := s.queueLatency(ctx, q)
		if err != nil {
			return nil, err
		}
		snap.QueueLatencies[q] = latency
	}
	snap.DefaultQueueLatency = snap.QueueLatencies["default"]

	identities, err := s.client.SMembers(ctx, s.key("processes")).Result()
	if err != nil {
		return nil, fmt.Errorf("read processes set: %w", err)
	}
	sort.Strings(identities)
	for _, identity := range identities {
		info, ok, err := s.processInfo(ctx, identity)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warn("skipping malformed process entry", zap.String("process", identity))
			continue
		}
		snap.Processes = append(snap.Processes, info)
		snap.WorkersSize += int64(info.Busy)
	}
	snap.ProcessesSize = int64(len(snap.Processes))

	return snap, nil
}

// statCounter reads a string counter such as stat:processed. Missing keys
// read as zero.
func (s *RedisSource) statCounter(ctx context.Context, name string) (int64, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", name, val, err)
	}
	return n, nil
}

func (s *RedisSource) setSize(ctx context.Context, name string) (int64, error) {
	n, err := s.client.ZCard(ctx, s.key(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("read %s set size: %w", name, err)
	}
	return n, nil
}

// queueLatency returns the seconds the oldest pending job of queue q has been
// waiting. Workers LPUSH new jobs, so the oldest sits at the tail of the list.
func (s *RedisSource) queueLatency(ctx context.Context, q string) (float64, error) {
	payload, err := s.client.LIndex(ctx, s.key("queue:"+q), -1).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read oldest job of queue %s: %w", q, err)
	}

	var job struct {
		EnqueuedAt float64 `json:"enqueued_at"`
	}
	if err := json.Unmarshal([]byte(payload), &job); err != nil || job.EnqueuedAt == 0 {
		s.log.Warn("oldest job of queue has no usable enqueued_at", zap.String("queue", q))
		return 0, nil
	}

	latency := float64(s.now().UnixNano())/float64(time.Second) - job.EnqueuedAt
	if latency < 0 {
		latency = 0
	}
	return latency, nil
}

// processInfo reads one process hash. The hash carries a busy counter plus an
// info JSON blob written at process startup that includes the configured
// concurrency.
func (s *RedisSource) processInfo(ctx context.Context, identity string) (ProcessInfo, bool, error) {
	vals, err := s.client.HMGet(ctx, s.key(identity), "busy", "info").Result()
	if err != nil {
		return ProcessInfo{}, false, fmt.Errorf("read process %s: %w", identity, err)
	}

	busyRaw, ok := vals[0].(string)
	if !ok {
		return ProcessInfo{}, false, nil
	}
	busy, err := strconv.Atoi(busyRaw)
	if err != nil || busy < 0 {
		return ProcessInfo{}, false, nil
	}

	infoRaw, ok := vals[1].(string)
	if !ok {
		return ProcessInfo{}, false, nil
	}
	var info struct {
		Concurrency int `json:"concurrency"`
	}
	if err := json.Unmarshal([]byte(infoRaw), &info); err != nil || info.Concurrency <= 0 {
		return ProcessInfo{}, false, nil
	}

	return ProcessInfo{Concurrency: info.Concurrency, Busy: busy}, true, nil
}
