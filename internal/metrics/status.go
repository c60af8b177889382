package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatusCounter returns the number of sessions per status.
type StatusCounter func() map[string]int

// StatusCollector reports sessions per status at scrape time.
type StatusCollector struct {
	count    StatusCounter
	statuses []string
	desc     *prometheus.Desc
}

// NewStatusCollector creates a collector. Every status in statuses is
// reported, with zero when no session has it.
func NewStatusCollector(count StatusCounter, statuses ...string) *StatusCollector {
	return &StatusCollector{
		count:    count,
		statuses: statuses,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sessions", "by_status"),
			"Sessions per status",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.count()
	for _, status := range c.statuses {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[status]), status)
	}
}
