package curve

import (
	"fmt"
	"sort"
)

// Curve is a keyframed scalar curve evaluated with cubic Hermite interpolation.
type Curve struct {
	Keys []Keyframe
}

// NewCurve builds a curve from keys sorted by strictly increasing time.
// Tangents are derived according to mode; TangentExplicit keeps the stored ones.
func NewCurve(keys []Keyframe, mode TangentMode) (*Curve, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys", ErrInvalidCurve)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i].Time <= keys[i-1].Time {
			return nil, fmt.Errorf("%w: key %d at %.4fs is not after key %d at %.4fs",
				ErrInvalidCurve, i, keys[i].Time, i-1, keys[i-1].Time)
		}
	}

	owned := make([]Keyframe, len(keys))
	copy(owned, keys)
	applyTangents(owned, mode)

	return &Curve{Keys: owned}, nil
}

// Constant builds a single-key curve holding value.
func Constant(value float64) *Curve {
	return &Curve{Keys: []Keyframe{{Value: value}}}
}

// FromSamples builds a curve from values sampled at the given times, with auto tangents.
func FromSamples(times, values []float64) (*Curve, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times but %d values", ErrInvalidCurve, len(times), len(values))
	}
	keys := make([]Keyframe, len(times))
	for i := range times {
		keys[i] = Keyframe{Time: times[i], Value: values[i]}
	}
	return NewCurve(keys, TangentAuto)
}

// KeyCount returns the number of keys.
func (c *Curve) KeyCount() int {
	return len(c.Keys)
}

// Evaluate returns the interpolated value at t. Times before the first key hold the
// first value; times after the last key hold the last value.
func (c *Curve) Evaluate(t float64) float64 {
	n := len(c.Keys)
	if n == 0 {
		return 0
	}
	if t <= c.Keys[0].Time {
		return c.Keys[0].Value
	}
	if t >= c.Keys[n-1].Time {
		return c.Keys[n-1].Value
	}

	k := sort.Search(n, func(i int) bool { return c.Keys[i].Time > t }) - 1
	a, b := c.Keys[k], c.Keys[k+1]
	return hermiteInterp(a.Time, b.Time, a.Value, b.Value, a.OutTangent, b.InTangent, t)
}

// Func returns Evaluate as a curve function bound to this curve's keys.
func (c *Curve) Func() Func {
	return c.Evaluate
}

// Track pairs a binding with its curve.
type Track struct {
	Binding Binding
	Curve   *Curve
}

// Clip is a handle to a baked animation clip held in memory.
type Clip struct {
	Name string

	length   float64
	tracks   []Track
	released bool
}

// NewClip creates a clip handle. A non-positive length is replaced by the time of
// the latest key across all tracks.
func NewClip(name string, length float64, tracks ...Track) *Clip {
	c := &Clip{Name: name, tracks: tracks}
	if length <= 0 {
		for _, tr := range tracks {
			if n := tr.Curve.KeyCount(); n > 0 {
				length = max(length, tr.Curve.Keys[n-1].Time)
			}
		}
	}
	c.length = length
	return c
}

// Length returns the clip duration in seconds.
func (c *Clip) Length() float64 {
	return c.length
}

// SetLength changes the clip duration. Caches keyed on the old length become stale.
func (c *Clip) SetLength(length float64) {
	c.length = length
}

// Tracks returns the clip tracks in insertion order.
func (c *Clip) Tracks() []Track {
	return c.tracks
}

// SetCurve replaces the curve of binding b, adding a track if b is new.
func (c *Clip) SetCurve(b Binding, curve *Curve) {
	for i := range c.tracks {
		if c.tracks[i].Binding == b {
			c.tracks[i].Curve = curve
			return
		}
	}
	c.tracks = append(c.tracks, Track{Binding: b, Curve: curve})
}

// Release invalidates the handle. Providers reject released clips.
func (c *Clip) Release() {
	c.released = true
}

// Released reports whether the handle was released.
func (c *Clip) Released() bool {
	return c.released
}
