// Package quote sizes orders for one product against its position limit.
package quote

import (
	"math"

	"main/internal/book"
	"main/internal/fair"
	"main/internal/schema"
)

// Config holds per-product quoting parameters.
type Config struct {
	Symbol schema.Symbol
	Limit  schema.Quantity
	// Buffer is the cushion kept below the hard limit when posting resting
	// quotes, leaving margin for adverse fills.
	Buffer schema.Quantity
	// Inset is how far outside the fair bounds resting quotes are posted:
	// buys at Lower-Inset, sells at Upper+Inset.
	Inset schema.Price
}

// Quoter decides how much to trade against resting liquidity and how much
// to post as new resting orders.
type Quoter struct {
	cfg Config
}

// NewQuoter creates a quoter for one product.
func NewQuoter(cfg Config) *Quoter {
	return &Quoter{cfg: cfg}
}

// Quote emits up to four orders: a take and a rest per side. If every
// emitted order fills, the position stays inside [-limit, +limit].
func (q *Quoter) Quote(v book.View, bounds fair.Bounds, pos schema.Quantity) []schema.Order {
	var orders []schema.Order
	limit := q.cfg.Limit
	restTarget := limit - q.cfg.Buffer

	var takeBuy, takeSell schema.Quantity

	// Take mispriced asks at or below the fair lower bound.
	if ask, ok := v.BestAsk(); ok && float64(ask) <= bounds.Lower {
		takeBuy = clamp(min(v.AskQty(ask), limit-pos))
		if takeBuy > 0 {
			orders = append(orders, schema.Order{Symbol: q.cfg.Symbol, Price: ask, Qty: takeBuy})
		}
	}

	// Take mispriced bids at or above the fair upper bound.
	if bid, ok := v.BestBid(); ok && float64(bid) >= bounds.Upper {
		takeSell = clamp(min(v.BidQty(bid), limit+pos))
		if takeSell > 0 {
			orders = append(orders, schema.Order{Symbol: q.cfg.Symbol, Price: bid, Qty: -takeSell})
		}
	}

	// Post resting quotes for whatever headroom remains. Unbounded fair
	// values cannot be priced, so nothing is posted on that side.
	if !math.IsInf(bounds.Lower, -1) {
		restBuy := clamp(restTarget - pos - takeBuy)
		if restBuy > 0 {
			price := schema.Price(math.Floor(bounds.Lower)) - q.cfg.Inset
			orders = append(orders, schema.Order{Symbol: q.cfg.Symbol, Price: price, Qty: restBuy})
		}
	}
	if !math.IsInf(bounds.Upper, 1) {
		restSell := clamp(restTarget + pos - takeSell)
		if restSell > 0 {
			price := schema.Price(math.Ceil(bounds.Upper)) + q.cfg.Inset
			orders = append(orders, schema.Order{Symbol: q.cfg.Symbol, Price: price, Qty: -restSell})
		}
	}

	return orders
}

// clamp floors negative sizes to zero so a zero-or-negative-size order is
// never emitted.
func clamp(q schema.Quantity) schema.Quantity {
	if q < 0 {
		return 0
	}
	return q
}

func min(a, b schema.Quantity) schema.Quantity {
	if a < b {
		return a
	}
	return b
}
