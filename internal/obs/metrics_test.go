package obs

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncTick()
	m.IncTick()
	m.IncTickFailure()
	m.IncOrder(OrderTake)
	m.IncOrder(OrderTake)
	m.IncOrder(OrderEntry)
	m.IncEntrySuppressed()
	m.IncEmptyBook()
	m.ObserveTick(10 * time.Microsecond)
	m.ObserveTick(30 * time.Microsecond)

	snap := m.Snapshot()
	if snap.Ticks != 2 || snap.TickFailures != 1 {
		t.Fatalf("tick counts mismatch: %+v", snap)
	}
	if snap.OrderCounts[OrderTake] != 2 || snap.OrderCounts[OrderEntry] != 1 {
		t.Fatalf("order counts mismatch: %+v", snap.OrderCounts)
	}
	if _, ok := snap.OrderCounts[OrderRest]; ok {
		t.Fatalf("zero counters must be omitted: %+v", snap.OrderCounts)
	}
	if snap.EntriesSuppressed != 1 || snap.EmptyBooks != 1 {
		t.Fatalf("suppression counts mismatch: %+v", snap)
	}
	if snap.TickLatency.Count != 2 {
		t.Fatalf("latency count mismatch: %+v", snap.TickLatency)
	}
	if snap.TickLatency.Min != 10*time.Microsecond || snap.TickLatency.Max != 30*time.Microsecond {
		t.Fatalf("latency bounds mismatch: %+v", snap.TickLatency)
	}
	if snap.TickLatency.Avg != 20*time.Microsecond {
		t.Fatalf("latency avg mismatch: %+v", snap.TickLatency)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncTick()
	m.IncOrder(OrderRest)
	m.ObserveTick(time.Millisecond)
	if snap := m.Snapshot(); snap.Ticks != 0 {
		t.Fatalf("nil metrics snapshot must be empty: %+v", snap)
	}
}
