// Package ops loads and resolves the engine configuration.
package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"main/internal/ledger"
	"main/internal/schema"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Session  SessionConfig   `json:"session"`
	Products []ProductConfig `json:"products"`
}

// SessionConfig defines ledger bookkeeping parameters.
type SessionConfig struct {
	Self          string             `json:"self"`
	TickInterval  int64              `json:"tickInterval"`
	BiasMagnitude float64            `json:"biasMagnitude"`
	Decay         map[string]float64 `json:"decay"`
}

// ProductConfig describes one product table entry.
type ProductConfig struct {
	Symbol    string           `json:"symbol"`
	Limit     int64            `json:"limit"`
	Policy    string           `json:"policy"`
	Quote     *QuoteConfig     `json:"quote"`
	Anchor    *AnchorConfig    `json:"anchor"`
	Rolling   *RollingConfig   `json:"rolling"`
	Composite *CompositeConfig `json:"composite"`
}

// QuoteConfig holds quoting parameters for anchor and rolling products.
type QuoteConfig struct {
	Spread     int64 `json:"spread"`
	OpenSpread int64 `json:"openSpread"`
	Buffer     int64 `json:"buffer"`
}

// AnchorConfig fixes a constant fair value.
type AnchorConfig struct {
	Fair int64 `json:"fair"`
}

// RollingConfig derives fair bounds from trailing mid-price history.
type RollingConfig struct {
	Window int     `json:"window"`
	Width  float64 `json:"width"`
	Trend  bool    `json:"trend"`
}

// CompositeConfig defines a basket and its arbitrage parameters.
type CompositeConfig struct {
	Legs   []LegConfig `json:"legs"`
	Offset float64     `json:"offset"`
	Mode   string      `json:"mode"`
	Enter  float64     `json:"enter"`
	Reset  float64     `json:"reset"`
	Window int         `json:"window"`
}

// LegConfig is one constituent of a composite.
type LegConfig struct {
	Symbol string `json:"symbol"`
	Mult   int64  `json:"mult"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry *schema.Registry
	Session  ledger.Config
}

// Load reads a JSON config file and resolves the product table.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a file config and builds the registry.
func Resolve(cfg FileConfig) (Loaded, error) {
	if len(cfg.Products) == 0 {
		return Loaded{}, fmt.Errorf("config has no products")
	}
	reg := schema.NewRegistry()
	for _, pc := range cfg.Products {
		product, err := resolveProduct(pc)
		if err != nil {
			return Loaded{}, err
		}
		if err := reg.Add(product); err != nil {
			return Loaded{}, err
		}
	}
	// Composite legs may reference products declared later, so check
	// them only after the full table is built.
	for i := 0; i < reg.Count(); i++ {
		product, _ := reg.At(i)
		if product.Policy != schema.PolicyComposite {
			continue
		}
		for _, leg := range product.Composite.Legs {
			if _, ok := reg.Product(leg.Symbol); !ok {
				return Loaded{}, fmt.Errorf("composite %s: leg not in product table: %s", product.Symbol, leg.Symbol)
			}
		}
	}
	session, err := resolveSession(cfg.Session)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{Registry: reg, Session: session}, nil
}

func resolveSession(cfg SessionConfig) (ledger.Config, error) {
	if cfg.Self == "" {
		return ledger.Config{}, fmt.Errorf("session self identity is empty")
	}
	if cfg.TickInterval <= 0 {
		return ledger.Config{}, fmt.Errorf("session tickInterval must be > 0")
	}
	if cfg.BiasMagnitude < 0 {
		return ledger.Config{}, fmt.Errorf("session biasMagnitude must be >= 0")
	}
	for name, rate := range cfg.Decay {
		if rate < 0 || rate > 1 {
			return ledger.Config{}, fmt.Errorf("session decay for %s must be in [0, 1]", name)
		}
	}
	return ledger.Config{
		Self:          cfg.Self,
		TickInterval:  cfg.TickInterval,
		BiasMagnitude: cfg.BiasMagnitude,
		Decay:         cfg.Decay,
	}, nil
}

func resolveProduct(cfg ProductConfig) (schema.Product, error) {
	if cfg.Symbol == "" {
		return schema.Product{}, fmt.Errorf("product symbol is empty")
	}
	product := schema.Product{
		Symbol: schema.Symbol(cfg.Symbol),
		Limit:  schema.Quantity(cfg.Limit),
	}

	switch cfg.Policy {
	case "anchor":
		product.Policy = schema.PolicyAnchor
		if cfg.Anchor == nil {
			return schema.Product{}, fmt.Errorf("product %s: anchor policy needs an anchor block", cfg.Symbol)
		}
		if cfg.Anchor.Fair <= 0 {
			return schema.Product{}, fmt.Errorf("product %s: anchor fair value must be > 0", cfg.Symbol)
		}
		product.Anchor = schema.AnchorSpec{Fair: schema.Price(cfg.Anchor.Fair)}
	case "rolling":
		product.Policy = schema.PolicyRolling
		if cfg.Rolling == nil {
			return schema.Product{}, fmt.Errorf("product %s: rolling policy needs a rolling block", cfg.Symbol)
		}
		if cfg.Rolling.Window < 2 {
			return schema.Product{}, fmt.Errorf("product %s: rolling window must be >= 2", cfg.Symbol)
		}
		if cfg.Rolling.Width <= 0 {
			return schema.Product{}, fmt.Errorf("product %s: rolling width must be > 0", cfg.Symbol)
		}
		product.Rolling = schema.RollingSpec{
			Window: cfg.Rolling.Window,
			Width:  cfg.Rolling.Width,
			Trend:  cfg.Rolling.Trend,
		}
	case "composite":
		product.Policy = schema.PolicyComposite
		composite, err := resolveComposite(cfg)
		if err != nil {
			return schema.Product{}, err
		}
		product.Composite = composite
	case "passive":
		product.Policy = schema.PolicyPassive
	default:
		return schema.Product{}, fmt.Errorf("product %s: unknown policy %q", cfg.Symbol, cfg.Policy)
	}

	if product.Policy == schema.PolicyAnchor || product.Policy == schema.PolicyRolling {
		quote, err := resolveQuote(cfg)
		if err != nil {
			return schema.Product{}, err
		}
		product.Quote = quote
	}
	return product, nil
}

func resolveQuote(cfg ProductConfig) (schema.QuoteSpec, error) {
	if cfg.Quote == nil {
		return schema.QuoteSpec{}, fmt.Errorf("product %s: quoting policy needs a quote block", cfg.Symbol)
	}
	if cfg.Quote.Spread <= 0 {
		return schema.QuoteSpec{}, fmt.Errorf("product %s: quote spread must be > 0", cfg.Symbol)
	}
	if cfg.Quote.OpenSpread < cfg.Quote.Spread {
		return schema.QuoteSpec{}, fmt.Errorf("product %s: quote openSpread must be >= spread", cfg.Symbol)
	}
	if cfg.Quote.Buffer < 0 || cfg.Quote.Buffer >= cfg.Limit {
		return schema.QuoteSpec{}, fmt.Errorf("product %s: quote buffer must be in [0, limit)", cfg.Symbol)
	}
	return schema.QuoteSpec{
		Spread:     schema.Price(cfg.Quote.Spread),
		OpenSpread: schema.Price(cfg.Quote.OpenSpread),
		Buffer:     schema.Quantity(cfg.Quote.Buffer),
	}, nil
}

func resolveComposite(cfg ProductConfig) (schema.CompositeSpec, error) {
	c := cfg.Composite
	if c == nil {
		return schema.CompositeSpec{}, fmt.Errorf("product %s: composite policy needs a composite block", cfg.Symbol)
	}
	spec := schema.CompositeSpec{
		Offset: c.Offset,
		Enter:  c.Enter,
		Reset:  c.Reset,
		Window: c.Window,
	}
	switch c.Mode {
	case "spread":
		spec.Mode = schema.SignalSpread
	case "zscore":
		spec.Mode = schema.SignalZScore
		if c.Window < 2 {
			return schema.CompositeSpec{}, fmt.Errorf("product %s: zscore mode needs window >= 2", cfg.Symbol)
		}
	default:
		return schema.CompositeSpec{}, fmt.Errorf("product %s: unknown signal mode %q", cfg.Symbol, c.Mode)
	}
	if c.Enter <= 0 {
		return schema.CompositeSpec{}, fmt.Errorf("product %s: composite enter threshold must be > 0", cfg.Symbol)
	}
	if c.Reset < c.Enter {
		return schema.CompositeSpec{}, fmt.Errorf("product %s: composite reset band must be >= enter", cfg.Symbol)
	}
	for _, leg := range c.Legs {
		spec.Legs = append(spec.Legs, schema.Leg{Symbol: schema.Symbol(leg.Symbol), Mult: leg.Mult})
	}
	return spec, nil
}

// Default returns the built-in product table used when no config file is
// given.
func Default() (Loaded, error) {
	return Resolve(FileConfig{
		Session: SessionConfig{
			Self:          "SUBMISSION",
			TickInterval:  100,
			BiasMagnitude: 1.5,
		},
		Products: []ProductConfig{
			{
				Symbol: "AMETHYSTS",
				Limit:  20,
				Policy: "anchor",
				Quote:  &QuoteConfig{Spread: 1, OpenSpread: 3, Buffer: 5},
				Anchor: &AnchorConfig{Fair: 10000},
			},
			{Symbol: "CHOCOLATE", Limit: 250, Policy: "passive"},
			{Symbol: "STRAWBERRIES", Limit: 350, Policy: "passive"},
			{Symbol: "ROSES", Limit: 60, Policy: "passive"},
			{
				Symbol: "GIFT_BASKET",
				Limit:  60,
				Policy: "composite",
				Composite: &CompositeConfig{
					Legs: []LegConfig{
						{Symbol: "CHOCOLATE", Mult: 4},
						{Symbol: "STRAWBERRIES", Mult: 6},
						{Symbol: "ROSES", Mult: 1},
					},
					Offset: 375,
					Mode:   "spread",
					Enter:  300,
					Reset:  6000,
				},
			},
		},
	})
}
