package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics exposes Go runtime and process gauges. Values are read
// when the meter is collected, so there is no background goroutine.
type RuntimeMetrics struct {
	startTime    time.Time
	registration metric.Registration
}

// RegisterRuntimeMetrics registers the runtime gauges on meter
func RegisterRuntimeMetrics(meter metric.Meter, startTime time.Time) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64ObservableGauge(
		"runtime_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutine gauge: %w", err)
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create heap gauge: %w", err)
	}

	gcCount, err := meter.Int64ObservableCounter(
		"runtime_gc_cycles_total",
		metric.WithDescription("Number of completed GC cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GC counter: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"process_uptime_seconds",
		metric.WithDescription("Seconds since the process started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	rm := &RuntimeMetrics{startTime: startTime}
	rm.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heapAlloc, int64(mem.HeapAlloc))
		o.ObserveInt64(gcCount, int64(mem.NumGC))
		o.ObserveFloat64(uptime, time.Since(rm.startTime).Seconds())
		return nil
	}, goroutines, heapAlloc, gcCount, uptime)
	if err != nil {
		return nil, fmt.Errorf("failed to register runtime metrics callback: %w", err)
	}

	return rm, nil
}

// Unregister stops reporting the runtime gauges
func (rm *RuntimeMetrics) Unregister() error {
	if rm == nil || rm.registration == nil {
		return nil
	}
	return rm.registration.Unregister()
}
