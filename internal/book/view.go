// Package book provides a read-only view over one product's depth maps.
package book

import (
	"sort"

	"main/internal/schema"
)

// View adapts a snapshot's buy/sell maps for one product. It is purely
// derived from the snapshot and has no side effects.
type View struct {
	depth schema.Depth
	bids  []schema.Price // descending
	asks  []schema.Price // ascending
}

// NewView builds a view, sorting price levels once.
func NewView(depth schema.Depth) View {
	v := View{depth: depth}
	if len(depth.BuyOrders) > 0 {
		v.bids = make([]schema.Price, 0, len(depth.BuyOrders))
		for price := range depth.BuyOrders {
			v.bids = append(v.bids, price)
		}
		sort.Slice(v.bids, func(i, j int) bool { return v.bids[i] > v.bids[j] })
	}
	if len(depth.SellOrders) > 0 {
		v.asks = make([]schema.Price, 0, len(depth.SellOrders))
		for price := range depth.SellOrders {
			v.asks = append(v.asks, price)
		}
		sort.Slice(v.asks, func(i, j int) bool { return v.asks[i] < v.asks[j] })
	}
	return v
}

// BestBid returns the highest buy price. ok is false when the side is empty,
// meaning no trade is possible against bids this tick.
func (v View) BestBid() (schema.Price, bool) {
	if len(v.bids) == 0 {
		return 0, false
	}
	return v.bids[0], true
}

// BestAsk returns the lowest sell price.
func (v View) BestAsk() (schema.Price, bool) {
	if len(v.asks) == 0 {
		return 0, false
	}
	return v.asks[0], true
}

// WorstBid returns the lowest resting buy price.
func (v View) WorstBid() (schema.Price, bool) {
	if len(v.bids) == 0 {
		return 0, false
	}
	return v.bids[len(v.bids)-1], true
}

// WorstAsk returns the highest resting sell price.
func (v View) WorstAsk() (schema.Price, bool) {
	if len(v.asks) == 0 {
		return 0, false
	}
	return v.asks[len(v.asks)-1], true
}

// Mid returns the mid-price, defined only when both sides are non-empty.
func (v View) Mid() (float64, bool) {
	bid, okBid := v.BestBid()
	ask, okAsk := v.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return float64(bid+ask) / 2, true
}

// BidQty returns the positive resting quantity at a bid price level.
func (v View) BidQty(price schema.Price) schema.Quantity {
	return v.depth.BuyOrders[price]
}

// AskQty returns the positive quantity offered at an ask price level.
// Sell maps carry negative quantities on the wire.
func (v View) AskQty(price schema.Price) schema.Quantity {
	return -v.depth.SellOrders[price]
}

// BidVolume walks bids in descending price order, accumulating quantity
// until the total reaches target. The result sizes orders against true
// resting liquidity rather than the best level alone.
func (v View) BidVolume(target schema.Quantity) schema.Quantity {
	var total schema.Quantity
	for _, price := range v.bids {
		total += v.depth.BuyOrders[price]
		if total >= target {
			break
		}
	}
	return total
}

// AskVolume walks asks in ascending price order, accumulating offered
// quantity until the total reaches target.
func (v View) AskVolume(target schema.Quantity) schema.Quantity {
	var total schema.Quantity
	for _, price := range v.asks {
		total += -v.depth.SellOrders[price]
		if total >= target {
			break
		}
	}
	return total
}
