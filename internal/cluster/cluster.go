// Package cluster reads the operational state of the job-processing cluster
// from its registry. Reads are best-effort: the registry is shared by every
// worker process and may be mid-update, so a snapshot is only required to be
// internally plausible, not transactionally consistent.
package cluster

import "context"

// ProcessInfo describes one live worker process in the fleet.
type ProcessInfo struct {
	// Concurrency is the number of job slots the process was configured with.
	Concurrency int
	// Busy is the number of slots currently executing a job.
	Busy int
}

// Snapshot is one point-in-time view of the cluster, read fresh each tick.
type Snapshot struct {
	Processed           int64
	Failed              int64
	Enqueued            int64
	ScheduledSize       int64
	RetrySize           int64
	DeadSize            int64
	WorkersSize         int64
	ProcessesSize       int64
	DefaultQueueLatency float64

	Processes []ProcessInfo
	// Queues maps queue name to pending-job count.
	Queues map[string]int64
	// QueueLatencies maps queue name to the seconds the oldest pending job
	// has been waiting. Empty queues report zero.
	QueueLatencies map[string]float64
}

// Source produces cluster snapshots. Implementations must be safe for use
// from the publisher's background goroutine.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
