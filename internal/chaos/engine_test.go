package chaos

import (
	"reflect"
	"testing"

	"main/internal/schema"
)

func sampleTick() schema.Tick {
	return schema.Tick{
		Timestamp: 100,
		Depths: map[schema.Symbol]schema.Depth{
			"A": {
				BuyOrders:  map[schema.Price]schema.Quantity{99: 5},
				SellOrders: map[schema.Price]schema.Quantity{101: -5},
			},
			"B": {
				BuyOrders:  map[schema.Price]schema.Quantity{199: 5},
				SellOrders: map[schema.Price]schema.Quantity{201: -5},
			},
		},
	}
}

func TestZeroRatesLeaveTickAlone(t *testing.T) {
	e, err := NewEngine(Config{Seed: 7})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got := e.Apply(sampleTick())
	if !reflect.DeepEqual(got, sampleTick()) {
		t.Fatalf("tick changed: %+v", got)
	}
}

func TestDropProduct(t *testing.T) {
	e, err := NewEngine(Config{Seed: 7, DropProductRate: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got := e.Apply(sampleTick())
	if len(got.Depths) != 0 {
		t.Fatalf("depths left: %+v", got.Depths)
	}
}

func TestDropSide(t *testing.T) {
	e, err := NewEngine(Config{Seed: 7, DropSideRate: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got := e.Apply(sampleTick())
	for sym, depth := range got.Depths {
		if depth.BuyOrders != nil && depth.SellOrders != nil {
			t.Fatalf("%s kept both sides", sym)
		}
		if depth.BuyOrders == nil && depth.SellOrders == nil {
			t.Fatalf("%s lost both sides", sym)
		}
	}
}

func TestSameSeedSameOutcome(t *testing.T) {
	cfg := Config{Seed: 42, DropProductRate: 0.4, DropSideRate: 0.4}
	a, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	b, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	for i := 0; i < 20; i++ {
		ta, tb := a.Apply(sampleTick()), b.Apply(sampleTick())
		if !reflect.DeepEqual(ta, tb) {
			t.Fatalf("tick %d diverged", i)
		}
	}
}

func TestValidate(t *testing.T) {
	if _, err := NewEngine(Config{DropProductRate: 1.5}); err == nil {
		t.Fatal("want error for rate > 1")
	}
	if _, err := NewEngine(Config{DropSideRate: -0.1}); err == nil {
		t.Fatal("want error for negative rate")
	}
}
