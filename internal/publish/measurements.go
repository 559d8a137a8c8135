package publish

import (
	"sort"
	"time"

	"github.com/sidekiq-metrics-agent/internal/cluster"
)

// SinkBatchLimit is the backend's maximum number of measurements accepted in
// one submission call. Exceeding it gets the call rejected outright, so the
// transform output is always chunked to this size.
const SinkBatchLimit = 20

// Capacity is the total number of job slots configured across the fleet.
func Capacity(procs []cluster.ProcessInfo) int {
	total := 0
	for _, p := range procs {
		total += p.Concurrency
	}
	return total
}

// Utilization is the mean per-process busy/concurrency fraction, not
// total-busy over total-capacity: a fleet of many small idle processes should
// not be drowned out by one large busy process. Processes reporting a
// non-positive concurrency are excluded; an empty or fully-excluded fleet
// reports zero. Busy above concurrency passes through as a fraction above 1.
func Utilization(procs []cluster.ProcessInfo) float64 {
	sum := 0.0
	counted := 0
	for _, p := range procs {
		if p.Concurrency <= 0 {
			continue
		}
		sum += float64(p.Busy) / float64(p.Concurrency)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// BuildMeasurements transforms one snapshot into the ordered measurement
// sequence: eleven fleet-wide values followed by a size/latency pair per
// queue, queues in name order. Queue measurements carry a QueueName dimension
// ahead of the base dimensions.
func BuildMeasurements(snap *cluster.Snapshot, ts time.Time, base []Dimension) []Measurement {
	fleet := func(name string, value float64, unit Unit) Measurement {
		return Measurement{
			Name:       name,
			Timestamp:  ts,
			Value:      value,
			Unit:       unit,
			Dimensions: base,
		}
	}

	out := make([]Measurement, 0, 11+2*len(snap.Queues))
	out = append(out,
		fleet("ProcessedJobs", float64(snap.Processed), UnitCount),
		fleet("FailedJobs", float64(snap.Failed), UnitCount),
		fleet("EnqueuedJobs", float64(snap.Enqueued), UnitCount),
		fleet("ScheduledJobs", float64(snap.ScheduledSize), UnitCount),
		fleet("RetryJobs", float64(snap.RetrySize), UnitCount),
		fleet("DeadJobs", float64(snap.DeadSize), UnitCount),
		fleet("Workers", float64(snap.WorkersSize), UnitCount),
		fleet("Processes", float64(snap.ProcessesSize), UnitCount),
		fleet("Capacity", float64(Capacity(snap.Processes)), UnitCount),
		fleet("Utilization", Utilization(snap.Processes)*100.0, UnitPercent),
		fleet("DefaultQueueLatency", snap.DefaultQueueLatency, UnitSeconds),
	)

	names := make([]string, 0, len(snap.Queues))
	for q := range snap.Queues {
		names = append(names, q)
	}
	sort.Strings(names)

	for _, q := range names {
		dims := make([]Dimension, 0, len(base)+1)
		dims = append(dims, Dimension{Name: "QueueName", Value: q})
		dims = append(dims, base...)
		out = append(out,
			Measurement{Name: "QueueSize", Timestamp: ts, Value: float64(snap.Queues[q]), Unit: UnitCount, Dimensions: dims},
			Measurement{Name: "QueueLatency", Timestamp: ts, Value: snap.QueueLatencies[q], Unit: UnitSeconds, Dimensions: dims},
		)
	}

	return out
}

// Chunk splits measurements into consecutive batches of at most size,
// preserving order.
func Chunk(measurements []Measurement, size int) [][]Measurement {
	if size <= 0 || len(measurements) == 0 {
		return nil
	}
	batches := make([][]Measurement, 0, (len(measurements)+size-1)/size)
	for start := 0; start < len(measurements); start += size {
		end := start + size
		if end > len(measurements) {
			end = len(measurements)
		}
		batches = append(batches, measurements[start:end])
	}
	return batches
}
