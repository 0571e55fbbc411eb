package motion

import (
	"math"

	"github.com/five82/looper/internal/curve"
)

// Defaults for Model.
const (
	DefaultVelocityWeight   = 0.5
	DefaultVelocityDelta    = 1.0 / 60.0
	DefaultAmplitudeSamples = 30
)

// Sampler evaluates channels at arbitrary times. clipcache.Entry is the usual
// implementation and memoizes every sample.
type Sampler interface {
	Sample(b curve.Binding, t float64) float64
}

// Model scores pose similarity and motion amplitude for a set of channels.
type Model struct {
	Table            Table
	VelocityWeight   float64
	VelocityDelta    float64
	AmplitudeSamples int
}

// NewModel returns a model with the default table and constants.
func NewModel() *Model {
	return &Model{
		Table:            DefaultTable(),
		VelocityWeight:   DefaultVelocityWeight,
		VelocityDelta:    DefaultVelocityDelta,
		AmplitudeSamples: DefaultAmplitudeSamples,
	}
}

// Channels classifies bindings with the model's table.
func (m *Model) Channels(bindings []curve.Binding) []Channel {
	table := m.Table
	if table == nil {
		table = DefaultTable()
	}
	return table.Channels(bindings)
}

// PoseAndVelocityCost returns the mean weighted difference between the poses at a
// and b. Velocity-tracked channels also add the weighted difference of their
// central-difference velocities. Returns 0 for no channels.
func (m *Model) PoseAndVelocityCost(src Sampler, channels []Channel, a, b float64) float64 {
	if len(channels) == 0 {
		return 0
	}

	d := m.VelocityDelta
	if d <= 0 {
		d = DefaultVelocityDelta
	}

	var sum float64
	for _, ch := range channels {
		va := src.Sample(ch.Binding, a)
		vb := src.Sample(ch.Binding, b)
		sum += math.Abs(vb-va) * ch.Class.PositionWeight

		if !ch.Class.TrackVelocity {
			continue
		}
		velA := (src.Sample(ch.Binding, a+d) - src.Sample(ch.Binding, a-d)) / (2 * d)
		velB := (src.Sample(ch.Binding, b+d) - src.Sample(ch.Binding, b-d)) / (2 * d)
		sum += math.Abs(velB-velA) * m.VelocityWeight
	}

	return sum / float64(len(channels))
}

// AmplitudeOverInterval sums the peak-to-peak range of every amplitude-tracked
// channel, sampled at AmplitudeSamples equally spaced points across [start, end].
func (m *Model) AmplitudeOverInterval(src Sampler, channels []Channel, start, end float64) float64 {
	n := m.AmplitudeSamples
	if n < 2 {
		n = 2
	}
	step := (end - start) / float64(n-1)

	var total float64
	for _, ch := range channels {
		if !ch.Class.TrackAmplitude {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			t := start + step*float64(i)
			if i == n-1 {
				t = end
			}
			v := src.Sample(ch.Binding, t)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		total += hi - lo
	}
	return total
}

// CoverageRatio is candidate amplitude over baseline amplitude, 0 when the baseline is 0.
func CoverageRatio(candidate, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return candidate / baseline
}
