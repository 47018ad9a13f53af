package feed

import (
	"bufio"
	"io"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// Writer encodes ticks as one JSON line each. Output is deterministic:
// depth levels are sorted and map keys are emitted in order.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps a session sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteTick appends one tick line.
func (w *Writer) WriteTick(tick schema.Tick) error {
	data, err := sonic.ConfigStd.Marshal(toRecord(tick))
	if err != nil {
		return errors.Wrap(err, "encode tick")
	}
	if _, err := w.w.Write(data); err != nil {
		return errors.Wrap(err, "write tick")
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "write tick")
	}
	return nil
}

// Flush drains buffered lines to the sink.
func (w *Writer) Flush() error {
	return errors.Wrap(w.w.Flush(), "flush session sink")
}

func toRecord(tick schema.Tick) tickRecord {
	rec := tickRecord{
		Timestamp:  tick.Timestamp,
		Depths:     make(map[string]depthRecord, len(tick.Depths)),
		TraderData: tick.TraderData,
	}
	for sym, depth := range tick.Depths {
		rec.Depths[string(sym)] = toDepthRecord(depth)
	}
	if len(tick.Positions) > 0 {
		rec.Positions = make(map[string]int64, len(tick.Positions))
		for sym, pos := range tick.Positions {
			rec.Positions[string(sym)] = int64(pos)
		}
	}
	rec.OwnTrades = toTradeRecords(tick.OwnTrades)
	rec.MarketTrades = toTradeRecords(tick.MarketTrades)
	return rec
}

func toDepthRecord(depth schema.Depth) depthRecord {
	rec := depthRecord{
		Bids: make([][]decimal.Decimal, 0, len(depth.BuyOrders)),
		Asks: make([][]decimal.Decimal, 0, len(depth.SellOrders)),
	}
	for _, price := range sortedPrices(depth.BuyOrders, true) {
		rec.Bids = append(rec.Bids, level(price, depth.BuyOrders[price]))
	}
	for _, price := range sortedPrices(depth.SellOrders, false) {
		rec.Asks = append(rec.Asks, level(price, -depth.SellOrders[price]))
	}
	return rec
}

func toTradeRecords(trades map[schema.Symbol][]schema.Trade) map[string][]tradeRecord {
	if len(trades) == 0 {
		return nil
	}
	out := make(map[string][]tradeRecord, len(trades))
	for sym, rows := range trades {
		recs := make([]tradeRecord, 0, len(rows))
		for _, trade := range rows {
			recs = append(recs, tradeRecord{
				Price:     dec(int64(trade.Price)),
				Qty:       dec(int64(trade.Qty)),
				Buyer:     trade.Buyer,
				Seller:    trade.Seller,
				Timestamp: trade.Timestamp,
			})
		}
		out[string(sym)] = recs
	}
	return out
}

func sortedPrices(levels map[schema.Price]schema.Quantity, descending bool) []schema.Price {
	prices := make([]schema.Price, 0, len(levels))
	for price := range levels {
		prices = append(prices, price)
	}
	sort.Slice(prices, func(i, j int) bool {
		if descending {
			return prices[i] > prices[j]
		}
		return prices[i] < prices[j]
	})
	return prices
}

func level(price schema.Price, qty schema.Quantity) []decimal.Decimal {
	return []decimal.Decimal{dec(int64(price)), dec(int64(qty))}
}

func dec(v int64) decimal.Decimal {
	return decimal.Require(strconv.FormatInt(v, 10))
}
