package schema

import "fmt"

// ValuationPolicy selects how fair value is derived for a product.
type ValuationPolicy uint16

const (
	PolicyUnknown ValuationPolicy = iota
	// PolicyAnchor quotes around a constant fair value.
	PolicyAnchor
	// PolicyRolling quotes around trailing mid-price statistics.
	PolicyRolling
	// PolicyComposite arbitrages a basket against its constituents.
	PolicyComposite
	// PolicyPassive registers the product (limit, depth) without quoting it.
	PolicyPassive
)

// SignalMode chooses how a composite mispricing is measured.
type SignalMode uint16

const (
	SignalUnknown SignalMode = iota
	// SignalSpread compares composite mid against synthetic value directly.
	SignalSpread
	// SignalZScore standardizes both series over a trailing window first.
	SignalZScore
)

// QuoteSpec holds quoting parameters for anchor and rolling products.
type QuoteSpec struct {
	// Spread is the distance from fair value at which resting liquidity is
	// considered mispriced enough to trade against.
	Spread Price
	// OpenSpread is the distance from fair value at which new resting
	// quotes are posted.
	OpenSpread Price
	// Buffer is the cushion kept below the hard position limit when
	// posting resting quotes.
	Buffer Quantity
}

// AnchorSpec fixes the fair value of a stable product.
type AnchorSpec struct {
	Fair Price
}

// RollingSpec derives fair bounds from trailing mid-price history.
type RollingSpec struct {
	Window int
	// Width is the bound half-width in standard deviations (mean mode) or
	// price units (trend mode).
	Width float64
	// Trend switches from mean/std bounds to a least-squares extrapolation
	// of the next mid-price.
	Trend bool
}

// Leg is one constituent of a composite instrument.
type Leg struct {
	Symbol Symbol
	Mult   int64
}

// CompositeSpec defines a basket instrument and its arbitrage parameters.
type CompositeSpec struct {
	Legs []Leg
	// Offset is the constant basis added to the weighted constituent sum.
	Offset float64
	Mode   SignalMode
	// Enter is the entry threshold: price units for SignalSpread, z-score
	// units for SignalZScore.
	Enter float64
	// Reset is the much wider band inside which a positioned engine does
	// not re-enter in the same direction without position movement.
	Reset float64
	// Window is the trailing window length for SignalZScore.
	Window int
}

// Product is one resolved entry of the product table.
type Product struct {
	Symbol    Symbol
	Limit     Quantity
	Policy    ValuationPolicy
	Quote     QuoteSpec
	Anchor    AnchorSpec
	Rolling   RollingSpec
	Composite CompositeSpec
}

// Registry is the product table resolved once at startup. Behavior is
// dispatched by policy, never by comparing symbol strings at tick time.
type Registry struct {
	products []Product
	bySymbol map[Symbol]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bySymbol: make(map[Symbol]int)}
}

// Add registers a product definition.
func (r *Registry) Add(p Product) error {
	if p.Symbol == "" {
		return fmt.Errorf("product symbol is empty")
	}
	if _, ok := r.bySymbol[p.Symbol]; ok {
		return fmt.Errorf("product already exists: %s", p.Symbol)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("product %s: position limit must be > 0", p.Symbol)
	}
	switch p.Policy {
	case PolicyAnchor, PolicyRolling, PolicyComposite, PolicyPassive:
	default:
		return fmt.Errorf("product %s: unknown valuation policy", p.Symbol)
	}
	if p.Policy == PolicyComposite {
		if len(p.Composite.Legs) == 0 {
			return fmt.Errorf("product %s: composite has no legs", p.Symbol)
		}
		for _, leg := range p.Composite.Legs {
			if leg.Symbol == "" || leg.Mult <= 0 {
				return fmt.Errorf("product %s: invalid composite leg %q", p.Symbol, leg.Symbol)
			}
		}
	}
	r.bySymbol[p.Symbol] = len(r.products)
	r.products = append(r.products, p)
	return nil
}

// Product returns the product definition for a symbol.
func (r *Registry) Product(sym Symbol) (Product, bool) {
	idx, ok := r.bySymbol[sym]
	if !ok {
		return Product{}, false
	}
	return r.products[idx], true
}

// Count returns the number of registered products.
func (r *Registry) Count() int {
	return len(r.products)
}

// At returns the product by zero-based registration index. Iteration order
// is registration order, keeping tick evaluation deterministic.
func (r *Registry) At(index int) (Product, bool) {
	if index < 0 || index >= len(r.products) {
		return Product{}, false
	}
	return r.products[index], true
}
