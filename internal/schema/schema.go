package schema

// Symbol identifies a tradable product.
type Symbol string

// Price is an integer price level in the simulated market's base unit.
type Price int64

// Quantity is a signed size. Positive buys, negative sells.
type Quantity int64

// Notional is a price-times-quantity amount in the base unit.
type Notional int64

// Order is a proposed order produced within one tick. Orders are never
// mutated after creation and never persisted.
type Order struct {
	Symbol Symbol
	Price  Price
	Qty    Quantity
}

// Trade is an executed trade reported by the harness.
// Qty is always positive; direction is given by Buyer/Seller.
type Trade struct {
	Symbol    Symbol
	Price     Price
	Qty       Quantity
	Buyer     string
	Seller    string
	Timestamp int64
}

// Depth holds the resting orders for one product.
//
// BuyOrders maps price to positive resting quantity available to sell into.
// SellOrders maps price to negative quantity offered, mirroring the harness
// wire format. A price present in both maps makes the book inconsistent;
// best-bid < best-ask is assumed for mid-price computation and behavior is
// undefined when violated.
type Depth struct {
	BuyOrders  map[Price]Quantity
	SellOrders map[Price]Quantity
}

// Tick is the per-tick market snapshot supplied by the harness.
type Tick struct {
	Timestamp    int64
	Depths       map[Symbol]Depth
	OwnTrades    map[Symbol][]Trade
	MarketTrades map[Symbol][]Trade
	Positions    map[Symbol]Quantity
	TraderData   string
}

// Result is the engine output for one tick. Conversions is always zero in
// this engine; the field exists to satisfy the harness contract.
type Result struct {
	Orders      map[Symbol][]Order
	Conversions int
	TraderData  string
}

// Abs returns the absolute quantity.
func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}
