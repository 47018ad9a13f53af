package ops

import (
	"os"
	"path/filepath"
	"testing"

	"main/internal/schema"
)

func TestDefaultResolves(t *testing.T) {
	loaded, err := Default()
	if err != nil {
		t.Fatalf("default config failed: %v", err)
	}
	if loaded.Registry.Count() != 5 {
		t.Fatalf("product count mismatch: got %d want 5", loaded.Registry.Count())
	}
	product, ok := loaded.Registry.Product("GIFT_BASKET")
	if !ok || product.Policy != schema.PolicyComposite {
		t.Fatalf("basket product mismatch: %+v ok=%v", product, ok)
	}
	if len(product.Composite.Legs) != 3 {
		t.Fatalf("basket legs mismatch: %+v", product.Composite.Legs)
	}
	if loaded.Session.Self != "SUBMISSION" || loaded.Session.TickInterval != 100 {
		t.Fatalf("session mismatch: %+v", loaded.Session)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"session": {"self": "SUBMISSION", "tickInterval": 100, "biasMagnitude": 1.5, "decay": {"Rihanna": 0.5}},
		"products": [
			{"symbol": "AMETHYSTS", "limit": 20, "policy": "anchor",
			 "quote": {"spread": 1, "openSpread": 3, "buffer": 5},
			 "anchor": {"fair": 10000}},
			{"symbol": "STARFRUIT", "limit": 20, "policy": "rolling",
			 "quote": {"spread": 1, "openSpread": 3, "buffer": 5},
			 "rolling": {"window": 10, "width": 2, "trend": true}}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	product, ok := loaded.Registry.Product("STARFRUIT")
	if !ok || product.Policy != schema.PolicyRolling || !product.Rolling.Trend {
		t.Fatalf("rolling product mismatch: %+v ok=%v", product, ok)
	}
	if loaded.Session.Decay["Rihanna"] != 0.5 {
		t.Fatalf("decay mismatch: %+v", loaded.Session.Decay)
	}
}

func TestResolveRejectsBadConfigs(t *testing.T) {
	session := SessionConfig{Self: "SUBMISSION", TickInterval: 100}
	cases := []struct {
		name    string
		product ProductConfig
	}{
		{
			name:    "unknown policy",
			product: ProductConfig{Symbol: "X", Limit: 10, Policy: "magic"},
		},
		{
			name:    "anchor without block",
			product: ProductConfig{Symbol: "X", Limit: 10, Policy: "anchor", Quote: &QuoteConfig{Spread: 1, OpenSpread: 3, Buffer: 2}},
		},
		{
			name: "buffer at limit",
			product: ProductConfig{Symbol: "X", Limit: 10, Policy: "anchor",
				Quote:  &QuoteConfig{Spread: 1, OpenSpread: 3, Buffer: 10},
				Anchor: &AnchorConfig{Fair: 100}},
		},
		{
			name: "zscore without window",
			product: ProductConfig{Symbol: "X", Limit: 10, Policy: "composite",
				Composite: &CompositeConfig{
					Legs:  []LegConfig{{Symbol: "Y", Mult: 1}},
					Mode:  "zscore",
					Enter: 2,
					Reset: 10,
				}},
		},
		{
			name:    "zero limit",
			product: ProductConfig{Symbol: "X", Limit: 0, Policy: "passive"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(FileConfig{Session: session, Products: []ProductConfig{tc.product}})
			if err == nil {
				t.Fatalf("expected resolve error")
			}
		})
	}
}

func TestResolveRejectsUnknownLeg(t *testing.T) {
	cfg := FileConfig{
		Session: SessionConfig{Self: "SUBMISSION", TickInterval: 100},
		Products: []ProductConfig{
			{Symbol: "BASKET", Limit: 10, Policy: "composite",
				Composite: &CompositeConfig{
					Legs:  []LegConfig{{Symbol: "MISSING", Mult: 2}},
					Mode:  "spread",
					Enter: 100,
					Reset: 1000,
				}},
		},
	}
	if _, err := Resolve(cfg); err == nil {
		t.Fatalf("expected error for leg outside the product table")
	}
}
