// Package engine evaluates one market snapshot per tick and proposes
// orders. Single-threaded by design: all state is private to one instance
// and mutated only inside Run, so independent instances may be evaluated in
// parallel with no sharing.
package engine

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/logs"

	"main/internal/arb"
	"main/internal/book"
	"main/internal/fair"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/quote"
	"main/internal/schema"
)

// Engine owns one session's strategy state.
type Engine struct {
	reg     *schema.Registry
	ledger  *ledger.Ledger
	metrics *obs.Metrics

	estimators map[schema.Symbol]fair.Estimator
	quoters    map[schema.Symbol]*quote.Quoter
	arbs       map[schema.Symbol]*arb.Engine
}

// carry is the opaque state string handed back to the harness each tick.
// The engine keeps its real state in memory; this exists for observability
// and for the harness contract.
type carry struct {
	Timestamp int64                             `json:"ts"`
	TotalPnL  schema.Notional                   `json:"totalPnl"`
	Positions map[schema.Symbol]schema.Quantity `json:"positions"`
}

// New builds an engine from a resolved configuration.
func New(loaded ops.Loaded, metrics *obs.Metrics) *Engine {
	e := &Engine{
		reg:        loaded.Registry,
		ledger:     ledger.New(loaded.Session),
		metrics:    metrics,
		estimators: make(map[schema.Symbol]fair.Estimator),
		quoters:    make(map[schema.Symbol]*quote.Quoter),
		arbs:       make(map[schema.Symbol]*arb.Engine),
	}
	for i := 0; i < loaded.Registry.Count(); i++ {
		product, _ := loaded.Registry.At(i)
		switch product.Policy {
		case schema.PolicyAnchor:
			e.estimators[product.Symbol] = fair.NewAnchor(float64(product.Anchor.Fair), float64(product.Quote.Spread))
			e.quoters[product.Symbol] = newQuoter(product)
		case schema.PolicyRolling:
			e.estimators[product.Symbol] = fair.NewRolling(product.Rolling.Window, product.Rolling.Width, product.Rolling.Trend)
			e.quoters[product.Symbol] = newQuoter(product)
		case schema.PolicyComposite:
			e.arbs[product.Symbol] = arb.NewEngine(arb.Config{
				Symbol: product.Symbol,
				Legs:   product.Composite.Legs,
				Offset: product.Composite.Offset,
				Limit:  product.Limit,
				Mode:   product.Composite.Mode,
				Enter:  product.Composite.Enter,
				Reset:  product.Composite.Reset,
				Window: product.Composite.Window,
			})
		}
	}
	return e
}

func newQuoter(product schema.Product) *quote.Quoter {
	return quote.NewQuoter(quote.Config{
		Symbol: product.Symbol,
		Limit:  product.Limit,
		Buffer: product.Quote.Buffer,
		Inset:  product.Quote.OpenSpread - product.Quote.Spread,
	})
}

// Ledger exposes the session ledger for end-of-run reporting.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Run evaluates one tick. The returned order lists, if fully filled, never
// push any position outside its configured limit. A composite whose
// constituent is missing from the snapshot fails the whole tick.
func (e *Engine) Run(tick schema.Tick) (schema.Result, error) {
	start := time.Now()

	e.ledger.SyncPositions(tick.Positions)
	e.ledger.ObserveMarketTrades(tick.MarketTrades)
	e.ledger.DecayBias()

	views := make(map[schema.Symbol]book.View, len(tick.Depths))
	for sym, depth := range tick.Depths {
		views[sym] = book.NewView(depth)
	}

	orders := make(map[schema.Symbol][]schema.Order)
	for i := 0; i < e.reg.Count(); i++ {
		product, _ := e.reg.At(i)
		sym := product.Symbol
		view, present := views[sym]

		switch product.Policy {
		case schema.PolicyAnchor, schema.PolicyRolling:
			mid, ok := 0.0, false
			if present {
				mid, ok = view.Mid()
			}
			bounds := e.estimators[sym].Update(mid, ok)
			if !present {
				e.metrics.IncEmptyBook()
				continue
			}
			produced := e.quoters[sym].Quote(view, bounds, e.ledger.Position(sym))
			if len(produced) > 0 {
				orders[sym] = produced
				e.countQuotes(view, produced)
			}
		case schema.PolicyComposite:
			if !present {
				continue
			}
			produced, err := e.arbs[sym].Tick(views, e.ledger.Position(sym))
			if err != nil {
				e.metrics.IncTickFailure()
				return schema.Result{}, err
			}
			if len(produced) > 0 {
				orders[sym] = produced
				for range produced {
					e.metrics.IncOrder(obs.OrderEntry)
				}
			} else if e.arbs[sym].Suppressed() {
				e.metrics.IncEntrySuppressed()
			}
		}
	}

	e.ledger.ApplyOwnTrades(tick.Timestamp, tick.OwnTrades)
	report := e.ledger.MarkToMarket(views)
	e.emitTelemetry(tick, report)

	data, err := e.carryForward(tick, report)
	if err != nil {
		return schema.Result{}, err
	}

	e.metrics.IncTick()
	e.metrics.ObserveTick(time.Since(start))
	return schema.Result{Orders: orders, Conversions: 0, TraderData: data}, nil
}

func (e *Engine) countQuotes(view book.View, produced []schema.Order) {
	bid, hasBid := view.BestBid()
	ask, hasAsk := view.BestAsk()
	for _, o := range produced {
		if o.Qty > 0 && hasAsk && o.Price >= ask {
			e.metrics.IncOrder(obs.OrderTake)
		} else if o.Qty < 0 && hasBid && o.Price <= bid {
			e.metrics.IncOrder(obs.OrderTake)
		} else {
			e.metrics.IncOrder(obs.OrderRest)
		}
	}
}

// emitTelemetry writes the per-tick diagnostic lines. Observability only;
// it never affects the emitted orders.
func (e *Engine) emitTelemetry(tick schema.Tick, report ledger.Report) {
	for i := 0; i < e.reg.Count(); i++ {
		product, _ := e.reg.At(i)
		sym := product.Symbol
		logs.Infof("product %s position=%d pnl=%d volume=%d",
			sym, e.ledger.Position(sym), report.PerProduct[sym], e.ledger.Volume(sym))
	}
	logs.Infof("tick %d total pnl=%d (realized=%d unrealized=%d)",
		tick.Timestamp, report.Total, report.Realized, report.Unrealized)
}

func (e *Engine) carryForward(tick schema.Tick, report ledger.Report) (string, error) {
	positions := make(map[schema.Symbol]schema.Quantity, e.reg.Count())
	for i := 0; i < e.reg.Count(); i++ {
		product, _ := e.reg.At(i)
		positions[product.Symbol] = e.ledger.Position(product.Symbol)
	}
	// ConfigStd sorts map keys, keeping the carry string deterministic for
	// identical inputs.
	data, err := sonic.ConfigStd.Marshal(carry{
		Timestamp: tick.Timestamp,
		TotalPnL:  report.Total,
		Positions: positions,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
