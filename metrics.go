/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Gomerge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects merge and footprint statistics. A nil *Metrics records
// nothing.
type Metrics struct {
	merges            *prometheus.CounterVec
	sourcesMerged     prometheus.Counter
	mergeDuration     prometheus.Histogram
	footprints        *prometheus.CounterVec
	footprintDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		merges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gomerge_merges_total",
				Help: "Total number of raster merges by result.",
			},
			[]string{"result"},
		),
		sourcesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gomerge_sources_merged_total",
			Help: "Total number of sources reprojected into a merge target.",
		}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gomerge_merge_duration_seconds",
			Help:    "Duration of raster merges in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		footprints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gomerge_footprints_total",
				Help: "Total number of footprint extractions by result.",
			},
			[]string{"result"},
		),
		footprintDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gomerge_footprint_duration_seconds",
			Help:    "Duration of footprint extractions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}
	reg.MustRegister(m.merges, m.sourcesMerged, m.mergeDuration, m.footprints, m.footprintDuration)
	return m
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observeMerge(start time.Time, err error) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(resultLabel(err)).Inc()
	m.mergeDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) sourceMerged() {
	if m == nil {
		return
	}
	m.sourcesMerged.Inc()
}

func (m *Metrics) observeFootprint(start time.Time, err error) {
	if m == nil {
		return
	}
	m.footprints.WithLabelValues(resultLabel(err)).Inc()
	m.footprintDuration.Observe(time.Since(start).Seconds())
}
