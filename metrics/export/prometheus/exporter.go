package prometheus

import (
	"net/http"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/metrics/export/internaldefs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSource is satisfied by [huiauth.Engine].
type MetricsSource interface {
	MetricsSnapshot() huiauth.MetricsSnapshot
	AuditDropped() uint64
}

type idDesc struct {
	id   huiauth.MetricID
	desc *prom.Desc
}

// Collector reads a fresh snapshot on every scrape.
type Collector struct {
	source     MetricsSource
	counters   []idDesc
	histograms []idDesc
	dropped    *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector builds a collector over source.
func NewCollector(source MetricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]idDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]idDesc, 0, len(internaldefs.HistogramDefs)),
		dropped:    prom.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, idDesc{id: def.ID, desc: prom.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, idDesc{id: def.ID, desc: prom.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prom.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	for _, d := range c.histograms {
		ch <- d.desc
	}
	ch <- c.dropped
}

// Collect emits nothing while the engine's metrics are disabled.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	dropped := c.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return
	}

	for _, d := range c.counters {
		ch <- prom.MustNewConstMetric(d.desc, prom.CounterValue, float64(snapshot.Counters[d.id]))
	}

	for _, d := range c.histograms {
		raw, ok := snapshot.Histograms[d.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, le := range internaldefs.HistogramBounds {
			buckets[le] = cumulative[i]
		}
		// the engine does not track a sum
		ch <- prom.MustNewConstHistogram(d.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prom.MustNewConstMetric(c.dropped, prom.CounterValue, float64(dropped))
}

// Handler serves source on a private registry. extra collectors (for
// example the Go runtime collector) are registered alongside.
func Handler(source MetricsSource, extra ...prom.Collector) http.Handler {
	reg := prom.NewRegistry()
	reg.MustRegister(NewCollector(source))
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
