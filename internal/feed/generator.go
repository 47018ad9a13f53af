package feed

import (
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// GeneratorConfig shapes the synthetic session.
type GeneratorConfig struct {
	// Interval is the timestamp step between ticks.
	Interval int64
	// Size is the quantity at the inside level; the second level carries
	// three times as much.
	Size schema.Quantity
	// HalfSpread is the distance from mid to the inside bid and ask.
	HalfSpread schema.Price
	// Amplitude bounds the per-product triangle wave around the base price.
	Amplitude schema.Price
	// CompositeSwing, when non-zero, adds a slow square wave to composite
	// mids so they periodically diverge from their synthetic value.
	CompositeSwing schema.Price
	// Bases overrides or supplies the base mid per product. Anchor products
	// default to their fair value and composites to the weighted sum of
	// their legs; every other product must appear here.
	Bases map[schema.Symbol]schema.Price
}

type genProduct struct {
	symbol    schema.Symbol
	base      schema.Price
	composite bool
}

// Generator emits a deterministic synthetic session: same configuration,
// same tick sequence, every time.
type Generator struct {
	cfg      GeneratorConfig
	products []genProduct
	index    int64
}

// NewGenerator builds a generator covering every product in the registry.
func NewGenerator(reg *schema.Registry, cfg GeneratorConfig) (*Generator, error) {
	if reg == nil || reg.Count() == 0 {
		return nil, errors.New("registry has no products")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100
	}
	if cfg.Size <= 0 {
		cfg.Size = 5
	}
	if cfg.HalfSpread <= 0 {
		cfg.HalfSpread = 1
	}
	if cfg.Amplitude < 0 {
		cfg.Amplitude = 0
	}

	bases := make(map[schema.Symbol]schema.Price, reg.Count())
	for sym, base := range cfg.Bases {
		bases[sym] = base
	}

	// Composites resolve after their legs so derived bases see every leg.
	products := make([]genProduct, 0, reg.Count())
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < reg.Count(); i++ {
			product, _ := reg.At(i)
			isComposite := product.Policy == schema.PolicyComposite
			if isComposite != (pass == 1) {
				continue
			}
			base, ok := bases[product.Symbol]
			if !ok {
				var err error
				if base, err = deriveBase(product, bases); err != nil {
					return nil, err
				}
				bases[product.Symbol] = base
			}
			products = append(products, genProduct{symbol: product.Symbol, base: base, composite: isComposite})
		}
	}

	// Restore registry order so tick layout matches the product table.
	ordered := make([]genProduct, 0, len(products))
	for i := 0; i < reg.Count(); i++ {
		product, _ := reg.At(i)
		for _, p := range products {
			if p.symbol == product.Symbol {
				ordered = append(ordered, p)
				break
			}
		}
	}

	return &Generator{cfg: cfg, products: ordered}, nil
}

func deriveBase(product schema.Product, bases map[schema.Symbol]schema.Price) (schema.Price, error) {
	switch product.Policy {
	case schema.PolicyAnchor:
		return product.Anchor.Fair, nil
	case schema.PolicyComposite:
		base := schema.Price(int64(product.Composite.Offset))
		for _, leg := range product.Composite.Legs {
			legBase, ok := bases[leg.Symbol]
			if !ok {
				return 0, errors.Errorf("no base price for constituent %s", leg.Symbol)
			}
			base += schema.Price(leg.Mult) * legBase
		}
		return base, nil
	default:
		return 0, errors.Errorf("no base price for product %s", product.Symbol)
	}
}

// Next creates the next tick in sequence.
func (g *Generator) Next() schema.Tick {
	tick := schema.Tick{
		Timestamp: g.index * g.cfg.Interval,
		Depths:    make(map[schema.Symbol]schema.Depth, len(g.products)),
	}
	for i, p := range g.products {
		mid := p.base + triangle(g.index+int64(i)*3, int64(g.cfg.Amplitude))
		if p.composite {
			mid += g.swing()
		}
		tick.Depths[p.symbol] = g.book(mid)
	}
	g.index++
	return tick
}

func (g *Generator) book(mid schema.Price) schema.Depth {
	bid := mid - g.cfg.HalfSpread
	ask := mid + g.cfg.HalfSpread
	size := g.cfg.Size
	return schema.Depth{
		BuyOrders:  map[schema.Price]schema.Quantity{bid: size, bid - 2: 3 * size},
		SellOrders: map[schema.Price]schema.Quantity{ask: -size, ask + 2: -3 * size},
	}
}

func (g *Generator) swing() schema.Price {
	if g.cfg.CompositeSwing == 0 {
		return 0
	}
	if (g.index/32)%2 == 0 {
		return g.cfg.CompositeSwing
	}
	return -g.cfg.CompositeSwing
}

// triangle is a deterministic wave over [-amplitude, amplitude].
func triangle(step, amplitude int64) schema.Price {
	if amplitude == 0 {
		return 0
	}
	period := 4 * amplitude
	pos := step % period
	switch {
	case pos < amplitude:
		return schema.Price(pos)
	case pos < 3*amplitude:
		return schema.Price(2*amplitude - pos)
	default:
		return schema.Price(pos - period)
	}
}
