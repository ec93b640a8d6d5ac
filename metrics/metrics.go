// Package metrics bridges the vault subsystems onto go-metrics registries.
//
// The exported constructors mirror the upstream library but honor the global
// Enabled switch: with metrics disabled they hand out nil implementations so
// instrumented code paths stay allocation free.
package metrics

import (
	"runtime"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/rcrowley/go-metrics"
)

// Enabled is checked by the constructor functions for all of the standard
// metrics. If it is false, the metric constructors return nil-op objects.
var Enabled = true

// Aliases of the upstream metric kinds so call sites only import this package.
type (
	Meter     = metrics.Meter
	Timer     = metrics.Timer
	Gauge     = metrics.Gauge
	Counter   = metrics.Counter
	Histogram = metrics.Histogram
	Registry  = metrics.Registry
)

// DefaultRegistry is the registry all NewRegistered* constructors fall back to
// when handed a nil registry.
var DefaultRegistry = metrics.DefaultRegistry

// NewRegisteredMeter constructs and registers a new Meter.
func NewRegisteredMeter(name string, r Registry) Meter {
	if !Enabled {
		return metrics.NilMeter{}
	}
	return metrics.NewRegisteredMeter(name, r)
}

// NewRegisteredTimer constructs and registers a new Timer.
func NewRegisteredTimer(name string, r Registry) Timer {
	if !Enabled {
		return metrics.NilTimer{}
	}
	return metrics.NewRegisteredTimer(name, r)
}

// NewRegisteredGauge constructs and registers a new Gauge.
func NewRegisteredGauge(name string, r Registry) Gauge {
	if !Enabled {
		return metrics.NilGauge{}
	}
	return metrics.NewRegisteredGauge(name, r)
}

// NewRegisteredCounter constructs and registers a new Counter.
func NewRegisteredCounter(name string, r Registry) Counter {
	if !Enabled {
		return metrics.NilCounter{}
	}
	return metrics.NewRegisteredCounter(name, r)
}

// NewRegisteredHistogram constructs and registers a new Histogram backed by an
// exponentially decaying sample.
func NewRegisteredHistogram(name string, r Registry) Histogram {
	if !Enabled {
		return metrics.NilHistogram{}
	}
	return metrics.NewRegisteredHistogram(name, r, metrics.NewExpDecaySample(1028, 0.015))
}

// CollectProcessMetrics periodically collects various metrics about the running
// process. It blocks, so run it in a goroutine.
func CollectProcessMetrics(refresh time.Duration) {
	if !Enabled {
		return
	}
	var (
		memAlloc   = NewRegisteredGauge("system/memory/allocs", nil)
		memFrees   = NewRegisteredGauge("system/memory/frees", nil)
		memHeld    = NewRegisteredGauge("system/memory/held", nil)
		memPauses  = NewRegisteredGauge("system/memory/pauses", nil)
		cpuTime    = NewRegisteredGauge("system/cpu/time", nil)
		goroutines = NewRegisteredGauge("system/goroutines", nil)
	)
	var memstats runtime.MemStats
	for {
		runtime.ReadMemStats(&memstats)
		memAlloc.Update(int64(memstats.Mallocs))
		memFrees.Update(int64(memstats.Frees))
		memHeld.Update(int64(memstats.HeapSys - memstats.HeapReleased))
		memPauses.Update(int64(memstats.PauseTotalNs))
		cpuTime.Update(getProcessCPUTime())
		goroutines.Update(int64(runtime.NumGoroutine()))

		time.Sleep(refresh)
	}
}

// LogDump writes a one-shot snapshot of every registered metric through the
// structured logger. Handy when a process has no reporting sink configured.
func LogDump(r Registry) {
	if r == nil {
		r = DefaultRegistry
	}
	r.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case Meter:
			log.Info("metric", "name", name, "count", m.Snapshot().Count())
		case Counter:
			log.Info("metric", "name", name, "count", m.Snapshot().Count())
		case Gauge:
			log.Info("metric", "name", name, "value", m.Snapshot().Value())
		case Timer:
			t := m.Snapshot()
			log.Info("metric", "name", name, "count", t.Count(), "mean", t.Mean())
		}
	})
}
