// Package arb trades a composite instrument against the weighted sum of its
// constituents.
package arb

import (
	"errors"
	"fmt"

	"main/internal/book"
	"main/internal/fair"
	"main/internal/schema"
)

// ErrMissingLeg reports a constituent absent from a snapshot that contains
// the composite. Guessing a leg price would break the sizing invariant, so
// the tick must fail loudly.
var ErrMissingLeg = errors.New("composite constituent absent from snapshot")

// Mode is the persistent per-composite position state.
type Mode uint16

const (
	ModeFlat Mode = iota
	ModeLong
	ModeShort
)

// Config defines one composite instrument and its signal parameters.
type Config struct {
	Symbol schema.Symbol
	Legs   []schema.Leg
	// Offset is the constant basis added to the weighted constituent sum.
	Offset float64
	Limit  schema.Quantity
	Mode   schema.SignalMode
	// Enter is the entry threshold: price units for SignalSpread, z-score
	// units for SignalZScore.
	Enter float64
	// Reset bounds the hysteresis band. While positioned with an unfilled
	// entry outstanding and the signal still inside ±Reset, the engine
	// does not re-enter in the same direction until the position moves.
	Reset float64
	// Window is the trailing window length for SignalZScore.
	Window int
}

// Engine evaluates one composite per tick, transitioning between Flat and
// Positioned on signal thresholds.
type Engine struct {
	cfg  Config
	mode Mode

	// Pending entry counters guard against re-ordering into an unfilled
	// entry. They reset once the position pins at the respective limit.
	pendingBuy  int
	pendingSell int
	entryPos    schema.Quantity
	suppressed  bool

	composite *fair.Window
	synthetic *fair.Window
}

// NewEngine creates an arbitrage engine in Flat mode.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg, entryPos: cfg.Limit + 1}
	if cfg.Mode == schema.SignalZScore {
		e.composite = fair.NewWindow(cfg.Window)
		e.synthetic = fair.NewWindow(cfg.Window)
	}
	return e
}

// Mode returns the current position state.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Suppressed reports whether the last Tick held back a same-direction
// re-entry while an earlier entry was still unfilled.
func (e *Engine) Suppressed() bool {
	return e.suppressed
}

// Tick evaluates the composite against its synthetic fair value and emits
// at most one directional order. views must contain every constituent; the
// composite itself must be present in views for Tick to be called.
func (e *Engine) Tick(views map[schema.Symbol]book.View, pos schema.Quantity) ([]schema.Order, error) {
	e.suppressed = false
	compView, ok := views[e.cfg.Symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingLeg, e.cfg.Symbol)
	}

	synth := e.cfg.Offset
	legViews := make([]book.View, len(e.cfg.Legs))
	for i, leg := range e.cfg.Legs {
		v, ok := views[leg.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingLeg, leg.Symbol)
		}
		mid, ok := v.Mid()
		if !ok {
			// One-sided constituent book: no synthetic value this tick.
			return nil, nil
		}
		synth += float64(leg.Mult) * mid
		legViews[i] = v
	}

	compMid, ok := compView.Mid()
	if !ok {
		return nil, nil
	}

	signal, ok := e.signal(compMid, synth)
	if !ok {
		return nil, nil
	}

	if pos >= e.cfg.Limit {
		e.pendingBuy = 0
	}
	if pos <= -e.cfg.Limit {
		e.pendingSell = 0
	}
	if pos != e.entryPos {
		// Position moved since the last entry; the outstanding entry is
		// (partially) filled and re-entry is allowed again.
		e.pendingBuy = 0
		e.pendingSell = 0
	}

	switch {
	case signal > e.cfg.Enter:
		e.pendingBuy = 0
		return e.enterShort(compView, legViews, pos, signal), nil
	case signal < -e.cfg.Enter:
		e.pendingSell = 0
		return e.enterLong(compView, legViews, pos, signal), nil
	default:
		// Inside the band: the existing position is left to the harness's
		// own carrying logic.
		return nil, nil
	}
}

func (e *Engine) signal(compMid, synth float64) (float64, bool) {
	if e.cfg.Mode != schema.SignalZScore {
		return compMid - synth, true
	}
	e.composite.Push(compMid)
	e.synthetic.Push(synth)
	zc, ok := e.composite.ZScore(compMid)
	if !ok {
		return 0, false
	}
	zs, ok := e.synthetic.ZScore(synth)
	if !ok {
		return 0, false
	}
	return zc - zs, true
}

// enterShort sells the composite against conceptual constituent buys.
func (e *Engine) enterShort(compView book.View, legViews []book.View, pos schema.Quantity, signal float64) []schema.Order {
	headroom := e.cfg.Limit + pos
	if headroom <= 0 {
		e.mode = ModeShort
		return nil
	}
	if e.pendingSell > 0 && signal < e.cfg.Reset {
		e.suppressed = true
		return nil
	}

	size := min(headroom, compView.BidVolume(headroom))
	for i, leg := range e.cfg.Legs {
		legDepth := legViews[i].AskVolume(schema.Quantity(leg.Mult) * headroom)
		size = min(size, legDepth/schema.Quantity(leg.Mult))
	}
	if size <= 0 {
		return nil
	}

	price, ok := compView.WorstBid()
	if !ok {
		return nil
	}
	e.mode = ModeShort
	e.pendingSell += 2
	e.entryPos = pos
	return []schema.Order{{Symbol: e.cfg.Symbol, Price: price, Qty: -size}}
}

// enterLong buys the composite against conceptual constituent sells.
func (e *Engine) enterLong(compView book.View, legViews []book.View, pos schema.Quantity, signal float64) []schema.Order {
	headroom := e.cfg.Limit - pos
	if headroom <= 0 {
		e.mode = ModeLong
		return nil
	}
	if e.pendingBuy > 0 && signal > -e.cfg.Reset {
		e.suppressed = true
		return nil
	}

	size := min(headroom, compView.AskVolume(headroom))
	for i, leg := range e.cfg.Legs {
		legDepth := legViews[i].BidVolume(schema.Quantity(leg.Mult) * headroom)
		size = min(size, legDepth/schema.Quantity(leg.Mult))
	}
	if size <= 0 {
		return nil
	}

	price, ok := compView.WorstAsk()
	if !ok {
		return nil
	}
	e.mode = ModeLong
	e.pendingBuy += 2
	e.entryPos = pos
	return []schema.Order{{Symbol: e.cfg.Symbol, Price: price, Qty: size}}
}

func min(a, b schema.Quantity) schema.Quantity {
	if a < b {
		return a
	}
	return b
}
