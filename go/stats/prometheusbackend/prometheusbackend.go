/*
Copyright 2026 The Waggle Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package prometheusbackend mirrors every variable published through the
// stats package as a Prometheus metric.
package prometheusbackend

import (
	"expvar"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waggle.dev/waggle/go/hive/logutil"
	"waggle.dev/waggle/go/stats"
)

// PromBackend implements a pull backend using Prometheus as the backing
// metrics storage.
type PromBackend struct {
	namespace string
}

var logUnsupported *logutil.ThrottledLogger

// Init initializes the Prometheus backend with the given namespace.
func Init(namespace string) {
	http.Handle("/metrics", promhttp.Handler())
	be := &PromBackend{namespace: namespace}
	logUnsupported = logutil.NewThrottledLogger("PrometheusUnsupportedMetricType", 1*time.Minute)
	stats.Register(be.publishPrometheusMetric)
}

// publishPrometheusMetric maps a published stats variable to the matching
// Prometheus collector.
func (be *PromBackend) publishPrometheusMetric(name string, v expvar.Var) {
	switch st := v.(type) {
	case *stats.Counter:
		be.newMetric(st, name, prometheus.CounterValue, func() float64 { return float64(st.Get()) })
	case *stats.CounterFunc:
		be.newMetric(st, name, prometheus.CounterValue, func() float64 { return float64(st.F()) })
	case *stats.Gauge:
		be.newMetric(st, name, prometheus.GaugeValue, func() float64 { return float64(st.Get()) })
	case *stats.GaugeFunc:
		be.newMetric(st, name, prometheus.GaugeValue, func() float64 { return float64(st.F()) })
	case *stats.CountersWithLabels:
		be.newCountersWithLabels(st, name, st.LabelName(), prometheus.CounterValue)
	case *stats.GaugesWithLabels:
		be.newGaugesWithLabels(st, name, st.LabelName(), prometheus.GaugeValue)
	case *stats.Timings:
		be.newTiming(st, name)
	default:
		logUnsupported.Infof("Not exporting to Prometheus an unsupported metric type of %T: %s", st, name)
	}
}

func (be *PromBackend) newCountersWithLabels(c *stats.CountersWithLabels, name string, labelName string, vt prometheus.ValueType) {
	collector := &countersWithLabelsCollector{
		counters: c,
		desc: prometheus.NewDesc(
			be.buildPromName(name),
			c.Help(),
			[]string{normalizeMetric(labelName)},
			nil),
		vt: vt}

	prometheus.MustRegister(collector)
}

func (be *PromBackend) newGaugesWithLabels(g *stats.GaugesWithLabels, name string, labelName string, vt prometheus.ValueType) {
	collector := &gaugesWithLabelsCollector{
		gauges: g,
		desc: prometheus.NewDesc(
			be.buildPromName(name),
			g.Help(),
			[]string{normalizeMetric(labelName)},
			nil),
		vt: vt}

	prometheus.MustRegister(collector)
}

func (be *PromBackend) newTiming(t *stats.Timings, name string) {
	collector := &timingsCollector{
		t:       t,
		cutoffs: makeLabel(t.Cutoffs()),
		desc: prometheus.NewDesc(
			be.buildPromName(name),
			t.Help(),
			[]string{normalizeMetric(t.Label())},
			nil),
	}

	prometheus.MustRegister(collector)
}

func (be *PromBackend) newMetric(v stats.Variable, name string, vt prometheus.ValueType, f func() float64) {
	collector := &metricFuncCollector{
		f: f,
		desc: prometheus.NewDesc(
			be.buildPromName(name),
			v.Help(),
			nil,
			nil),
		vt: vt}

	prometheus.MustRegister(collector)
}

// buildPromName specifies the namespace as a prefix to the metric name.
func (be *PromBackend) buildPromName(name string) string {
	s := strings.TrimPrefix(normalizeMetric(name), be.namespace+"_")
	return prometheus.BuildFQName("", be.namespace, s)
}

// normalizeMetric produces a compliant name by applying a camel case to
// snake case converter.
func normalizeMetric(name string) string {
	return stats.GetSnakeName(name)
}

// makeLabel converts timing cutoffs from nanoseconds to the seconds
// Prometheus expects.
func makeLabel(cutoffs []int64) []float64 {
	label := make([]float64, len(cutoffs))
	for i, v := range cutoffs {
		label[i] = float64(v) / 1000000000
	}
	return label
}
