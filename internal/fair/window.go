package fair

import "math"

// Window is a bounded FIFO of trailing prices. The oldest sample is evicted
// on overflow.
type Window struct {
	capacity int
	values   []float64
}

// NewWindow creates a window holding up to n samples.
func NewWindow(n int) *Window {
	if n < 1 {
		n = 1
	}
	return &Window{capacity: n, values: make([]float64, 0, n)}
}

// Push appends a sample, evicting the oldest when full.
func (w *Window) Push(v float64) {
	if len(w.values) == w.capacity {
		copy(w.values, w.values[1:])
		w.values[len(w.values)-1] = v
		return
	}
	w.values = append(w.values, v)
}

// Len returns the number of held samples.
func (w *Window) Len() int {
	return len(w.values)
}

// Full reports whether the window holds its full capacity of samples.
func (w *Window) Full() bool {
	return len(w.values) == w.capacity
}

// Last returns the most recent sample.
func (w *Window) Last() (float64, bool) {
	if len(w.values) == 0 {
		return 0, false
	}
	return w.values[len(w.values)-1], true
}

// Mean returns the arithmetic mean of the held samples.
func (w *Window) Mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values))
}

// Std returns the population standard deviation of the held samples.
func (w *Window) Std() float64 {
	n := len(w.values)
	if n == 0 {
		return 0
	}
	mean := w.Mean()
	var sum float64
	for _, v := range w.values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// ZScore standardizes v against the window. ok is false when the window is
// not full or the deviation is too small to divide by, which callers must
// treat as "no signal" rather than an infinite score.
func (w *Window) ZScore(v float64) (float64, bool) {
	if !w.Full() {
		return 0, false
	}
	std := w.Std()
	if nearZero(std) {
		return 0, false
	}
	return (v - w.Mean()) / std, true
}

// Trend extrapolates the next sample from a least-squares line fit over the
// window. ok is false when the window is not full.
func (w *Window) Trend() (float64, bool) {
	n := len(w.values)
	if !w.Full() || n < 2 {
		return 0, false
	}
	// x values are 0..n-1; predict at x = n.
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range w.values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if nearZero(math.Abs(denom)) {
		return 0, false
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	return intercept + slope*fn, true
}
