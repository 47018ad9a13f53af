// Package fair estimates per-product fair value bounds.
package fair

import "math"

// Bounds is a fair value band. An infinite side never triggers trading, so
// Unbounded acts as "no signal".
type Bounds struct {
	Lower float64
	Upper float64
}

// Unbounded returns bounds that disable trading on this signal.
func Unbounded() Bounds {
	return Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// Bounded reports whether both sides carry a usable signal.
func (b Bounds) Bounded() bool {
	return !math.IsInf(b.Lower, -1) && !math.IsInf(b.Upper, 1)
}

// Estimator updates trailing state with the latest mid-price and produces
// the fair bounds for the current tick. ok is false when the product had no
// mid-price this tick.
type Estimator interface {
	Update(mid float64, ok bool) Bounds
}

// Anchor is the fixed fair value policy for a stable-valued product.
type Anchor struct {
	fair   float64
	spread float64
}

// NewAnchor creates an anchor estimator with fair value and half-spread.
func NewAnchor(fair, spread float64) *Anchor {
	return &Anchor{fair: fair, spread: spread}
}

// Update returns the constant band regardless of observed prices.
func (a *Anchor) Update(float64, bool) Bounds {
	return Bounds{Lower: a.fair - a.spread, Upper: a.fair + a.spread}
}

// Rolling derives bounds from a trailing mid-price window. Until the window
// fills, bounds stay unbounded so the engine never acts on statistics from
// insufficient samples.
type Rolling struct {
	win   *Window
	width float64
	trend bool
}

// NewRolling creates a rolling estimator. width is in standard deviations
// for mean mode and in price units for trend mode.
func NewRolling(window int, width float64, trend bool) *Rolling {
	return &Rolling{win: NewWindow(window), width: width, trend: trend}
}

// Update pushes the latest mid-price and recomputes bounds.
func (r *Rolling) Update(mid float64, ok bool) Bounds {
	if ok {
		r.win.Push(mid)
	}
	if !r.win.Full() {
		return Unbounded()
	}
	if r.trend {
		next, valid := r.win.Trend()
		if !valid {
			return Unbounded()
		}
		return Bounds{Lower: next - r.width, Upper: next + r.width}
	}
	mean := r.win.Mean()
	std := r.win.Std()
	if nearZero(std) {
		return Unbounded()
	}
	return Bounds{Lower: mean - r.width*std, Upper: mean + r.width*std}
}

const stdEpsilon = 1e-9

func nearZero(v float64) bool {
	return v < stdEpsilon
}
