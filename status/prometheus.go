package status

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a Registry to prometheus
// Metrics are created lazily by components, so the collector is unchecked (Describe sends nothing)
type Collector struct {
	reg       *Registry
	namespace string
}

// NewCollector wraps reg; metric names become <namespace>_<key with dots as underscores>
func NewCollector(reg *Registry, namespace string) *Collector {
	return &Collector{reg: reg, namespace: namespace}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for key, value := range c.reg.Snapshot() {
		desc := prometheus.NewDesc(c.metricName(key), "navcore status metric "+key, nil, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.UntypedValue, value)
		if err != nil {
			continue
		}
		ch <- m
	}
}

func (c *Collector) metricName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	if c.namespace == "" {
		return name
	}
	return c.namespace + "_" + name
}
