package feed

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"main/internal/ops"
	"main/internal/schema"
)

func TestRoundTrip(t *testing.T) {
	in := schema.Tick{
		Timestamp: 300,
		Depths: map[schema.Symbol]schema.Depth{
			"AMETHYSTS": {
				BuyOrders:  map[schema.Price]schema.Quantity{9998: 5, 9996: 2},
				SellOrders: map[schema.Price]schema.Quantity{10002: -4, 10004: -6},
			},
		},
		OwnTrades: map[schema.Symbol][]schema.Trade{
			"AMETHYSTS": {
				{Symbol: "AMETHYSTS", Price: 9998, Qty: 3, Buyer: "SUBMISSION", Seller: "Rihanna", Timestamp: 200},
			},
		},
		Positions:  map[schema.Symbol]schema.Quantity{"AMETHYSTS": 3},
		TraderData: "carry",
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteTick(in); err != nil {
		t.Fatalf("write tick: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReader(&buf)
	out, err := r.Next()
	if err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("want io.EOF after last tick, got %v", err)
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n" + `{"ts":100,"depths":{}}` + "\n"))
	tick, err := r.Next()
	if err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if tick.Timestamp != 100 {
		t.Fatalf("timestamp = %d, want 100", tick.Timestamp)
	}
}

func TestReaderSkipsBeforeTimestamp(t *testing.T) {
	lines := `{"ts":0,"depths":{}}
{"ts":100,"depths":{}}
{"ts":200,"depths":{}}
`
	r := NewReader(strings.NewReader(lines))
	r.SkipBefore(150)
	tick, err := r.Next()
	if err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if tick.Timestamp != 200 {
		t.Fatalf("timestamp = %d, want 200", tick.Timestamp)
	}
}

func TestScanTimestamp(t *testing.T) {
	ts, ok := scanTimestamp([]byte(`{"ts": 1234, "depths":{}}`))
	if !ok || ts != 1234 {
		t.Fatalf("scan = %d %v", ts, ok)
	}
	if _, ok := scanTimestamp([]byte(`{"depths":{}}`)); ok {
		t.Fatal("want miss without ts field")
	}
}

func TestReaderRejectsBadLevels(t *testing.T) {
	for _, line := range []string{
		`{"ts":0,"depths":{"X":{"bids":[["100"]]}}}`,
		`{"ts":0,"depths":{"X":{"bids":[["100","0"]]}}}`,
		`{"ts":0,"depths":{"X":{"asks":[["abc","1"]]}}}`,
	} {
		r := NewReader(strings.NewReader(line))
		if _, err := r.Next(); err == nil {
			t.Fatalf("want error for %s", line)
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	loaded, err := ops.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg := GeneratorConfig{Interval: 100, Size: 5, HalfSpread: 1, Amplitude: 3}

	a, err := NewGenerator(loaded.Registry, cfg)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	b, err := NewGenerator(loaded.Registry, cfg)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	for i := 0; i < 50; i++ {
		ta, tb := a.Next(), b.Next()
		if !reflect.DeepEqual(ta, tb) {
			t.Fatalf("tick %d diverged", i)
		}
		if ta.Timestamp != int64(i)*100 {
			t.Fatalf("tick %d timestamp = %d", i, ta.Timestamp)
		}
	}
}

func TestGeneratorBooksAreCoherent(t *testing.T) {
	loaded, err := ops.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	g, err := NewGenerator(loaded.Registry, GeneratorConfig{Interval: 100, Size: 5, HalfSpread: 1, Amplitude: 3})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	for i := 0; i < 20; i++ {
		tick := g.Next()
		if len(tick.Depths) != loaded.Registry.Count() {
			t.Fatalf("tick %d has %d products", i, len(tick.Depths))
		}
		for sym, depth := range tick.Depths {
			var bestBid, bestAsk schema.Price
			for price, qty := range depth.BuyOrders {
				if qty <= 0 {
					t.Fatalf("%s bid size %d", sym, qty)
				}
				if price > bestBid {
					bestBid = price
				}
			}
			bestAsk = schema.Price(1<<62 - 1)
			for price, qty := range depth.SellOrders {
				if qty >= 0 {
					t.Fatalf("%s ask size %d", sym, qty)
				}
				if price < bestAsk {
					bestAsk = price
				}
			}
			if bestBid >= bestAsk {
				t.Fatalf("%s crossed book %d/%d", sym, bestBid, bestAsk)
			}
		}
	}
}

func TestGeneratorDerivesCompositeBase(t *testing.T) {
	loaded, err := ops.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	bases := map[schema.Symbol]schema.Price{
		"CHOCOLATE":    8000,
		"STRAWBERRIES": 4000,
		"ROSES":        15000,
	}
	g, err := NewGenerator(loaded.Registry, GeneratorConfig{Amplitude: 0, HalfSpread: 1, Size: 1, Interval: 100, Bases: bases})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	tick := g.Next()
	depth := tick.Depths["GIFT_BASKET"]
	// 4*8000 + 6*4000 + 15000 + 375, flat wave, half spread 1.
	if _, ok := depth.SellOrders[71376]; !ok {
		t.Fatalf("basket ask levels = %v", depth.SellOrders)
	}
	if _, ok := depth.BuyOrders[71374]; !ok {
		t.Fatalf("basket bid levels = %v", depth.BuyOrders)
	}
}

func TestGeneratorRejectsMissingBase(t *testing.T) {
	loaded, err := ops.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if _, err := NewGenerator(loaded.Registry, GeneratorConfig{}); err == nil {
		t.Fatal("want error for passive product without base price")
	}
}
