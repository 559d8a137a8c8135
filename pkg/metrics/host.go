package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessProbe is a prometheus.Collector reporting the agent's own process
// resource usage (CPU percent and resident memory), collected lazily on each
// scrape of the debug endpoint.
type ProcessProbe struct {
	proc    *process.Process
	cpuDesc *prometheus.Desc
	rssDesc *prometheus.Desc
}

// NewProcessProbe creates a probe for the current process.
func NewProcessProbe() (*ProcessProbe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessProbe{
		proc: proc,
		cpuDesc: prometheus.NewDesc(
			"agent_process_cpu_percent",
			"CPU usage percent of the agent process.",
			nil, nil,
		),
		rssDesc: prometheus.NewDesc(
			"agent_process_resident_memory_bytes",
			"Resident memory of the agent process.",
			nil, nil,
		),
	}, nil
}

// Describe implements prometheus.Collector.
func (p *ProcessProbe) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.cpuDesc
	ch <- p.rssDesc
}

// Collect implements prometheus.Collector. Probe failures drop the sample
// for this scrape instead of failing the whole endpoint.
func (p *ProcessProbe) Collect(ch chan<- prometheus.Metric) {
	if cpu, err := p.proc.CPUPercent(); err == nil {
		ch <- prometheus.MustNewConstMetric(p.cpuDesc, prometheus.GaugeValue, cpu)
	}
	if mem, err := p.proc.MemoryInfo(); err == nil && mem != nil {
		ch <- prometheus.MustNewConstMetric(p.rssDesc, prometheus.GaugeValue, float64(mem.RSS))
	}
}
