// Package prom exports cache.Metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/blockcache/cache"
)

// Adapter implements cache.Metrics with Prometheus counters and gauges.
// All Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evicts      *prometheus.CounterVec
	sizeEntries prometheus.Gauge
	sizeCharge  prometheus.Gauge
}

// New registers the cache metrics on reg (nil => prometheus.DefaultRegisterer)
// under namespace ns and subsystem sub. constLabels may be nil.
//
// Use one Adapter per cache: the size gauges carry that cache's totals.
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache lookups that found a resident entry.",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache lookups that found nothing.",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "displaced_total",
				Help:        "Entries that left the cache, by reason (overwrite, capacity, erase).",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "entries",
			Help:        "Resident entries.",
			ConstLabels: constLabels,
		}),
		sizeCharge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "charge",
			Help:        "Total charge of resident entries.",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.sizeEntries, a.sizeCharge)
	return a
}

func (a *Adapter) Hit()  { a.hits.Inc() }
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict counts a departure under its reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size sets the entry and charge gauges.
func (a *Adapter) Size(entries int, charge int64) {
	a.sizeEntries.Set(float64(entries))
	a.sizeCharge.Set(float64(charge))
}

var _ cache.Metrics = (*Adapter)(nil)
