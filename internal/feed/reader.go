// Package feed reads and writes session files: one JSON tick per line.
package feed

import (
	"bufio"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// depthRecord is one product's book on the wire. Rows are [price, size]
// pairs; sizes are positive on both sides, the ask side is negated on
// decode.
type depthRecord struct {
	Bids [][]decimal.Decimal `json:"bids"`
	Asks [][]decimal.Decimal `json:"asks"`
}

type tradeRecord struct {
	Price     decimal.Decimal `json:"price"`
	Qty       decimal.Decimal `json:"qty"`
	Buyer     string          `json:"buyer,omitempty"`
	Seller    string          `json:"seller,omitempty"`
	Timestamp int64           `json:"ts"`
}

type tickRecord struct {
	Timestamp    int64                    `json:"ts"`
	Depths       map[string]depthRecord   `json:"depths"`
	OwnTrades    map[string][]tradeRecord `json:"ownTrades,omitempty"`
	MarketTrades map[string][]tradeRecord `json:"marketTrades,omitempty"`
	Positions    map[string]int64         `json:"positions,omitempty"`
	TraderData   string                   `json:"traderData,omitempty"`
}

// Reader decodes a session stream tick by tick.
type Reader struct {
	sc   *bufio.Scanner
	line int
	from int64
}

// NewReader wraps a session stream.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{sc: sc}
}

// SkipBefore drops ticks stamped earlier than ts without decoding them.
func (r *Reader) SkipBefore(ts int64) {
	r.from = ts
}

// Next returns the next tick, or io.EOF when the stream ends. Blank lines
// are skipped.
func (r *Reader) Next() (schema.Tick, error) {
	for r.sc.Scan() {
		r.line++
		raw := r.sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		if r.from > 0 {
			if ts, ok := scanTimestamp(raw); ok && ts < r.from {
				continue
			}
		}

		var rec tickRecord
		if err := sonic.ConfigFastest.Unmarshal(raw, &rec); err != nil {
			return schema.Tick{}, errors.Wrapf(err, "decode tick at line %d", r.line)
		}

		tick, err := rec.toTick()
		if err != nil {
			return schema.Tick{}, errors.Wrapf(err, "tick at line %d", r.line)
		}
		return tick, nil
	}
	if err := r.sc.Err(); err != nil {
		return schema.Tick{}, errors.Wrap(err, "read session stream")
	}
	return schema.Tick{}, io.EOF
}

func (rec tickRecord) toTick() (schema.Tick, error) {
	tick := schema.Tick{
		Timestamp:  rec.Timestamp,
		Depths:     make(map[schema.Symbol]schema.Depth, len(rec.Depths)),
		TraderData: rec.TraderData,
	}

	for sym, d := range rec.Depths {
		depth, err := d.toDepth()
		if err != nil {
			return schema.Tick{}, errors.Wrapf(err, "depth %s", sym)
		}
		tick.Depths[schema.Symbol(sym)] = depth
	}

	if len(rec.Positions) > 0 {
		tick.Positions = make(map[schema.Symbol]schema.Quantity, len(rec.Positions))
		for sym, pos := range rec.Positions {
			tick.Positions[schema.Symbol(sym)] = schema.Quantity(pos)
		}
	}

	var err error
	if tick.OwnTrades, err = toTrades(rec.OwnTrades); err != nil {
		return schema.Tick{}, errors.Wrap(err, "own trades")
	}
	if tick.MarketTrades, err = toTrades(rec.MarketTrades); err != nil {
		return schema.Tick{}, errors.Wrap(err, "market trades")
	}
	return tick, nil
}

func (d depthRecord) toDepth() (schema.Depth, error) {
	depth := schema.Depth{
		BuyOrders:  make(map[schema.Price]schema.Quantity, len(d.Bids)),
		SellOrders: make(map[schema.Price]schema.Quantity, len(d.Asks)),
	}
	for _, row := range d.Bids {
		price, qty, err := parseLevel(row)
		if err != nil {
			return schema.Depth{}, errors.Wrap(err, "bid level")
		}
		depth.BuyOrders[price] = qty
	}
	for _, row := range d.Asks {
		price, qty, err := parseLevel(row)
		if err != nil {
			return schema.Depth{}, errors.Wrap(err, "ask level")
		}
		depth.SellOrders[price] = -qty
	}
	return depth, nil
}

func parseLevel(row []decimal.Decimal) (schema.Price, schema.Quantity, error) {
	if len(row) != 2 {
		return 0, 0, errors.Errorf("level has %d fields, want 2", len(row))
	}
	price, err := parseInt(row[0])
	if err != nil {
		return 0, 0, errors.Wrap(err, "price")
	}
	qty, err := parseInt(row[1])
	if err != nil {
		return 0, 0, errors.Wrap(err, "size")
	}
	if qty <= 0 {
		return 0, 0, errors.Errorf("size %d is not positive", qty)
	}
	return schema.Price(price), schema.Quantity(qty), nil
}

func toTrades(records map[string][]tradeRecord) (map[schema.Symbol][]schema.Trade, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make(map[schema.Symbol][]schema.Trade, len(records))
	for sym, rows := range records {
		trades := make([]schema.Trade, 0, len(rows))
		for _, row := range rows {
			price, err := parseInt(row.Price)
			if err != nil {
				return nil, errors.Wrapf(err, "trade price %s", sym)
			}
			qty, err := parseInt(row.Qty)
			if err != nil {
				return nil, errors.Wrapf(err, "trade size %s", sym)
			}
			trades = append(trades, schema.Trade{
				Symbol:    schema.Symbol(sym),
				Price:     schema.Price(price),
				Qty:       schema.Quantity(qty),
				Buyer:     row.Buyer,
				Seller:    row.Seller,
				Timestamp: row.Timestamp,
			})
		}
		out[schema.Symbol(sym)] = trades
	}
	return out, nil
}

func parseInt(d decimal.Decimal) (int64, error) {
	return strconv.ParseInt(d.String(), 10, 64)
}
