// Package obs collects lightweight counters and latency stats for the
// decision engine. Observability only; nothing here affects emitted orders.
package obs

import (
	"sync/atomic"
	"time"
)

// OrderKind classifies an emitted order by the component that produced it.
type OrderKind uint16

const (
	OrderUnknown OrderKind = iota
	// OrderTake crosses against mispriced resting liquidity.
	OrderTake
	// OrderRest posts passive liquidity inside the fair bounds.
	OrderRest
	// OrderEntry is a composite arbitrage entry.
	OrderEntry
)

const maxOrderKind = int(OrderEntry)

// Metrics collects per-session counters. Safe for concurrent reads of the
// snapshot even though the engine itself is single-threaded.
type Metrics struct {
	ticks             uint64
	tickFailures      uint64
	orderCounts       [maxOrderKind + 1]uint64
	entriesSuppressed uint64
	emptyBooks        uint64

	tickLatency LatencyStats
}

// Snapshot is a point-in-time view of the metrics.
type Snapshot struct {
	Ticks             uint64
	TickFailures      uint64
	OrderCounts       map[OrderKind]uint64
	EntriesSuppressed uint64
	EmptyBooks        uint64
	TickLatency       LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncTick records one completed tick evaluation.
func (m *Metrics) IncTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticks, 1)
}

// IncTickFailure records a tick that failed a precondition.
func (m *Metrics) IncTickFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tickFailures, 1)
}

// IncOrder counts an emitted order by kind.
func (m *Metrics) IncOrder(kind OrderKind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.orderCounts) {
		atomic.AddUint64(&m.orderCounts[idx], 1)
	}
}

// IncEntrySuppressed counts an arbitrage entry held back by hysteresis.
func (m *Metrics) IncEntrySuppressed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.entriesSuppressed, 1)
}

// IncEmptyBook counts a product skipped for missing liquidity.
func (m *Metrics) IncEmptyBook() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.emptyBooks, 1)
}

// ObserveTick measures one tick's decision latency.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	orderCounts := make(map[OrderKind]uint64)
	for i := range m.orderCounts {
		if v := atomic.LoadUint64(&m.orderCounts[i]); v > 0 {
			orderCounts[OrderKind(i)] = v
		}
	}
	return Snapshot{
		Ticks:             atomic.LoadUint64(&m.ticks),
		TickFailures:      atomic.LoadUint64(&m.tickFailures),
		OrderCounts:       orderCounts,
		EntriesSuppressed: atomic.LoadUint64(&m.entriesSuppressed),
		EmptyBooks:        atomic.LoadUint64(&m.emptyBooks),
		TickLatency:       m.tickLatency.Snapshot(),
	}
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
