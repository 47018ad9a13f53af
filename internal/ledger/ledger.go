// Package ledger tracks positions, realized P&L and counterparty signals
// for one engine session.
package ledger

import (
	"main/internal/book"
	"main/internal/schema"
)

// Config holds session bookkeeping parameters.
type Config struct {
	// Self is the identity under which the engine's own trades are
	// reported by the harness.
	Self string
	// TickInterval is the timestamp step between consecutive ticks. Own
	// trades stamped exactly one interval back are realized this tick.
	TickInterval int64
	// BiasMagnitude is the directional bias recorded per observed
	// third-party trade.
	BiasMagnitude float64
	// Decay maps counterparty identity to a per-tick multiplicative decay
	// of its bias toward zero. Unknown counterparties do not decay.
	Decay map[string]float64
}

// Ledger owns the session bookkeeping state. Positions are authoritative
// from the snapshot, never accumulated independently, so they cannot drift.
type Ledger struct {
	cfg       Config
	positions map[schema.Symbol]schema.Quantity
	realized  map[schema.Symbol]schema.Notional
	volume    map[schema.Symbol]schema.Quantity
	bias      map[string]map[schema.Symbol]float64
	activity  map[string]map[schema.Symbol]schema.Quantity
}

// Report is the observability view of total P&L for one tick. It is
// reported, not persisted.
type Report struct {
	Realized   schema.Notional
	Unrealized schema.Notional
	Total      schema.Notional
	PerProduct map[schema.Symbol]schema.Notional
}

// New creates an empty ledger.
func New(cfg Config) *Ledger {
	if cfg.BiasMagnitude == 0 {
		cfg.BiasMagnitude = 1.5
	}
	return &Ledger{
		cfg:       cfg,
		positions: make(map[schema.Symbol]schema.Quantity),
		realized:  make(map[schema.Symbol]schema.Notional),
		volume:    make(map[schema.Symbol]schema.Quantity),
		bias:      make(map[string]map[schema.Symbol]float64),
		activity:  make(map[string]map[schema.Symbol]schema.Quantity),
	}
}

// SyncPositions overwrites positions from the snapshot's authoritative map.
func (l *Ledger) SyncPositions(positions map[schema.Symbol]schema.Quantity) {
	for sym, qty := range positions {
		l.positions[sym] = qty
	}
}

// Position returns the current position for a product.
func (l *Ledger) Position(sym schema.Symbol) schema.Quantity {
	return l.positions[sym]
}

// Volume returns the cumulative traded volume for a product.
func (l *Ledger) Volume(sym schema.Symbol) schema.Quantity {
	return l.volume[sym]
}

// Realized returns the cumulative realized P&L for a product.
func (l *Ledger) Realized(sym schema.Symbol) schema.Notional {
	return l.realized[sym]
}

// ApplyOwnTrades realizes the engine's fills reported for the previous
// tick: debit when the engine bought, credit when it sold.
func (l *Ledger) ApplyOwnTrades(now int64, own map[schema.Symbol][]schema.Trade) {
	for sym, trades := range own {
		for _, trade := range trades {
			if trade.Timestamp != now-l.cfg.TickInterval {
				continue
			}
			amount := schema.Notional(trade.Qty) * schema.Notional(trade.Price)
			switch {
			case trade.Buyer == l.cfg.Self:
				l.realized[sym] -= amount
			case trade.Seller == l.cfg.Self:
				l.realized[sym] += amount
			default:
				continue
			}
			l.volume[sym] += trade.Qty.Abs()
		}
	}
}

// ObserveMarketTrades records directional bias and activity volume for
// every third-party trade in the market-wide feed. The signal is derivable
// telemetry; no decision component reads it.
func (l *Ledger) ObserveMarketTrades(trades map[schema.Symbol][]schema.Trade) {
	for sym, list := range trades {
		for _, trade := range list {
			if trade.Buyer == trade.Seller {
				continue
			}
			l.setBias(trade.Buyer, sym, l.cfg.BiasMagnitude)
			l.setBias(trade.Seller, sym, -l.cfg.BiasMagnitude)
			l.addActivity(trade.Buyer, sym, trade.Qty)
			l.addActivity(trade.Seller, sym, -trade.Qty)
		}
	}
}

// DecayBias fades configured counterparties' bias toward zero. Called once
// per tick.
func (l *Ledger) DecayBias() {
	for name, rate := range l.cfg.Decay {
		products, ok := l.bias[name]
		if !ok {
			continue
		}
		for sym := range products {
			products[sym] *= rate
		}
	}
}

// Bias returns the current directional bias for a counterparty and product.
func (l *Ledger) Bias(name string, sym schema.Symbol) float64 {
	return l.bias[name][sym]
}

// Activity returns the accumulated signed volume for a counterparty and
// product.
func (l *Ledger) Activity(name string, sym schema.Symbol) schema.Quantity {
	return l.activity[name][sym]
}

// MarkToMarket values each position at its worst available exit price:
// best bid when long, best ask when short. Products with no exit side this
// tick contribute realized P&L only.
func (l *Ledger) MarkToMarket(views map[schema.Symbol]book.View) Report {
	report := Report{PerProduct: make(map[schema.Symbol]schema.Notional, len(l.positions))}
	for sym, realized := range l.realized {
		report.PerProduct[sym] = realized
		report.Realized += realized
	}
	for sym, pos := range l.positions {
		if _, ok := report.PerProduct[sym]; !ok {
			report.PerProduct[sym] = 0
		}
		if pos == 0 {
			continue
		}
		v, ok := views[sym]
		if !ok {
			continue
		}
		var exit schema.Price
		if pos > 0 {
			exit, ok = v.BestBid()
		} else {
			exit, ok = v.BestAsk()
		}
		if !ok {
			continue
		}
		unrealized := schema.Notional(pos) * schema.Notional(exit)
		report.PerProduct[sym] += unrealized
		report.Unrealized += unrealized
	}
	report.Total = report.Realized + report.Unrealized
	return report
}

func (l *Ledger) setBias(name string, sym schema.Symbol, value float64) {
	products, ok := l.bias[name]
	if !ok {
		products = make(map[schema.Symbol]float64)
		l.bias[name] = products
	}
	products[sym] = value
}

func (l *Ledger) addActivity(name string, sym schema.Symbol, qty schema.Quantity) {
	products, ok := l.activity[name]
	if !ok {
		products = make(map[schema.Symbol]schema.Quantity)
		l.activity[name] = products
	}
	products[sym] += qty
}
