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

package stats

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
)

// Counter is expvar.Int+Get+hook
type Counter struct {
	i    atomic.Int64
	help string
}

// NewCounter returns a new Counter.
func NewCounter(name string, help string) *Counter {
	v := &Counter{help: help}
	if name != "" {
		publish(name, v)
	}
	return v
}

// Add adds the provided value to the Counter.
func (v *Counter) Add(delta int64) {
	v.i.Add(delta)
}

// Reset resets the counter value to 0.
func (v *Counter) Reset() {
	v.i.Store(0)
}

// Get returns the value.
func (v *Counter) Get() int64 {
	return v.i.Load()
}

// String implements expvar.Var.
func (v *Counter) String() string {
	return strconv.FormatInt(v.i.Load(), 10)
}

// Help returns the help string.
func (v *Counter) Help() string {
	return v.help
}

// Gauge is an unlabeled metric whose values can go up/down.
type Gauge struct {
	Counter
}

// NewGauge creates a new Gauge and publishes it if name is set.
func NewGauge(name string, help string) *Gauge {
	v := &Gauge{Counter: Counter{help: help}}

	if name != "" {
		publish(name, v)
	}
	return v
}

// Set sets the value.
func (v *Gauge) Set(value int64) {
	v.Counter.i.Store(value)
}

// CounterFunc converts a function that returns an int64 as an expvar.
// For backends that differentiate between counters and gauges, CounterFunc
// values only go up (or are reset to 0).
type CounterFunc struct {
	F    func() int64
	help string
}

// NewCounterFunc creates a new CounterFunc instance and publishes it if name
// is set.
func NewCounterFunc(name string, help string, f func() int64) *CounterFunc {
	c := &CounterFunc{
		F:    f,
		help: help,
	}

	if name != "" {
		publish(name, c)
	}
	return c
}

// Help returns the help string.
func (cf *CounterFunc) Help() string {
	return cf.help
}

// String implements expvar.Var.
func (cf *CounterFunc) String() string {
	return strconv.FormatInt(cf.F(), 10)
}

// GaugeFunc is a wrapper around CounterFunc for values that go up/down.
type GaugeFunc struct {
	CounterFunc
}

// NewGaugeFunc creates a new GaugeFunc instance and publishes it if name is
// set.
func NewGaugeFunc(name string, help string, f func() int64) *GaugeFunc {
	i := &GaugeFunc{
		CounterFunc: CounterFunc{
			F:    f,
			help: help,
		}}

	if name != "" {
		publish(name, i)
	}
	return i
}

// Counters is similar to expvar.Map, except that it doesn't allow floats.
// It is used to build CountersWithLabels and GaugesWithLabels.
type Counters struct {
	// mu only protects adding and retrieving the value (*int64) from the
	// map. Modification to the actual number (int64) is done with atomic
	// funcs.
	mu     sync.RWMutex
	counts map[string]*int64
	help   string
}

// String implements expvar.
func (c *Counters) String() string {
	b := bytes.NewBuffer(make([]byte, 0, 4096))

	c.mu.RLock()
	defer c.mu.RUnlock()

	fmt.Fprintf(b, "{")
	firstValue := true
	for k, a := range c.counts {
		if firstValue {
			firstValue = false
		} else {
			fmt.Fprintf(b, ", ")
		}
		fmt.Fprintf(b, "%q: %v", k, atomic.LoadInt64(a))
	}
	fmt.Fprintf(b, "}")
	return b.String()
}

func (c *Counters) getValueAddr(name string) *int64 {
	c.mu.RLock()
	a, ok := c.counts[name]
	c.mu.RUnlock()

	if ok {
		return a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Check the existence again, the value may have been created by
	// another goroutine.
	a, ok = c.counts[name]
	if ok {
		return a
	}
	a = new(int64)
	c.counts[name] = a
	return a
}

// Add adds a value to a named counter.
func (c *Counters) Add(name string, value int64) {
	a := c.getValueAddr(name)
	atomic.AddInt64(a, value)
}

// ResetAll resets all counter values.
func (c *Counters) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]*int64)
}

// Reset resets a specific counter value to 0.
func (c *Counters) Reset(name string) {
	a := c.getValueAddr(name)
	atomic.StoreInt64(a, int64(0))
}

// Counts returns a copy of the Counters' map.
func (c *Counters) Counts() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int64, len(c.counts))
	for k, a := range c.counts {
		counts[k] = atomic.LoadInt64(a)
	}
	return counts
}

// Help returns the help string.
func (c *Counters) Help() string {
	return c.help
}

// CountersWithLabels provides a labelName for the tagged values in Counters.
type CountersWithLabels struct {
	Counters
	labelName string
}

// NewCountersWithLabels creates a new CountersWithLabels instance. If name is
// set, the variable gets published. The function also accepts an optional
// list of tags that pre-creates them initialized to 0. labelName is a
// category name used to organize the tags in Prometheus.
func NewCountersWithLabels(name string, help string, labelName string, tags ...string) *CountersWithLabels {
	c := &CountersWithLabels{
		Counters: Counters{
			counts: make(map[string]*int64),
			help:   help,
		},
		labelName: labelName,
	}

	for _, tag := range tags {
		c.counts[tag] = new(int64)
	}
	if name != "" {
		publish(name, c)
	}
	return c
}

// LabelName returns the label name.
func (c *CountersWithLabels) LabelName() string {
	return c.labelName
}

// GaugesWithLabels is similar to CountersWithLabels, except its values can go
// up and down.
type GaugesWithLabels struct {
	CountersWithLabels
}

// NewGaugesWithLabels creates a new GaugesWithLabels and publishes it if the
// name is set.
func NewGaugesWithLabels(name string, help string, labelName string, tags ...string) *GaugesWithLabels {
	g := &GaugesWithLabels{CountersWithLabels: CountersWithLabels{Counters: Counters{
		counts: make(map[string]*int64),
		help:   help,
	}, labelName: labelName}}

	for _, tag := range tags {
		g.CountersWithLabels.counts[tag] = new(int64)
	}
	if name != "" {
		publish(name, g)
	}
	return g
}

// Set sets the value of a named gauge.
func (g *GaugesWithLabels) Set(name string, value int64) {
	a := g.CountersWithLabels.getValueAddr(name)
	atomic.StoreInt64(a, value)
}
