package clipcache

import (
	"math"
	"sort"

	"github.com/five82/looper/internal/curve"
)

type sampleKey struct {
	binding curve.Binding
	t       float64
}

// Entry is the cached snapshot of one clip.
type Entry struct {
	// Bindings lists eligible bindings in provider order.
	Bindings []curve.Binding

	// Curves holds the continuous value function of every eligible binding.
	Curves map[curve.Binding]curve.Func

	// TimeGrid is the uniform, strictly increasing time grid over [0, Length].
	TimeGrid []float64

	// Length is the clip duration at build time.
	Length float64

	memo map[sampleKey]float64
}

// Sample returns the value of b at t, evaluating the curve at most once per (b, t).
// Bindings without a curve sample as 0.
func (e *Entry) Sample(b curve.Binding, t float64) float64 {
	key := sampleKey{binding: b, t: t}
	if v, ok := e.memo[key]; ok {
		return v
	}
	fn, ok := e.Curves[b]
	if !ok {
		return 0
	}
	v := fn(t)
	e.memo[key] = v
	return v
}

// MemoSize returns the number of memoized samples.
func (e *Entry) MemoSize() int {
	return len(e.memo)
}

// NearestIndex returns the index of the grid time closest to t.
func (e *Entry) NearestIndex(t float64) int {
	return NearestIndex(e.TimeGrid, t)
}

// FloorIndex returns the index of the last grid time at or before t.
func (e *Entry) FloorIndex(t float64) int {
	return FloorIndex(e.TimeGrid, t)
}

// FloorIndex binary searches a sorted grid for the last point at or before t.
// Returns -1 when t precedes the grid or the grid is empty.
func FloorIndex(grid []float64, t float64) int {
	return sort.SearchFloat64s(grid, math.Nextafter(t, math.Inf(1))) - 1
}

// NearestIndex binary searches a sorted grid for the time closest to t.
// When t falls between two points the closer one wins and exact ties go to the
// lower index. Times before the first point return 0, after the last len-1.
// Returns -1 for an empty grid.
func NearestIndex(grid []float64, t float64) int {
	n := len(grid)
	if n == 0 {
		return -1
	}
	if t <= grid[0] {
		return 0
	}
	if t >= grid[n-1] {
		return n - 1
	}

	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if grid[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}

	if t-grid[lo] <= grid[hi]-t {
		return lo
	}
	return hi
}
