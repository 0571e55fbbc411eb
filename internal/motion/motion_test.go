package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/five82/looper/internal/curve"
)

type funcSampler map[curve.Binding]func(float64) float64

func (s funcSampler) Sample(b curve.Binding, t float64) float64 {
	if fn, ok := s[b]; ok {
		return fn(t)
	}
	return 0
}

func animator(property string) curve.Binding {
	return curve.Binding{Property: property, Kind: curve.KindAnimator}
}

var (
	leftLeg  = animator("Left Upper Leg Front-Back")
	rootY    = animator("RootT.y")
	hipsX    = curve.Binding{Path: "Hips", Property: "localPosition.x", Kind: curve.KindTransform}
	spine    = animator("Spine Front-Back")
	jaw      = animator("Jaw Close")
	forearm  = animator("LeftForearm Stretch")
	rootX    = animator("RootT.x")
	chestTwi = animator("Upper Chest Twist Left-Right")
)

func TestClassify(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		binding  curve.Binding
		rule     string
		weight   float64
		velocity bool
		amp      bool
	}{
		{binding: rootY, rule: "root-vertical", weight: 8, velocity: false, amp: true},
		{binding: rootX, rule: "default", weight: 1},
		{binding: leftLeg, rule: "legs", weight: 2, velocity: true, amp: true},
		{binding: animator("Right Foot Twist In-Out"), rule: "legs", weight: 2, velocity: true, amp: true},
		{binding: forearm, rule: "arms", weight: 2, velocity: true, amp: true},
		{binding: hipsX, rule: "hips", weight: 2, velocity: true, amp: false},
		{binding: spine, rule: "spine", weight: 1, velocity: false, amp: true},
		{binding: chestTwi, rule: "spine", weight: 1, velocity: false, amp: true},
		{binding: jaw, rule: "default", weight: 1},
	}

	for _, tt := range tests {
		t.Run(tt.binding.Name(), func(t *testing.T) {
			class, rule := table.Classify(tt.binding)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.weight, class.PositionWeight)
			assert.Equal(t, tt.velocity, class.TrackVelocity)
			assert.Equal(t, tt.amp, class.TrackAmplitude)
		})
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	table := Table{
		{Name: "first", Match: Contains("leg"), Class: Class{PositionWeight: 3}},
		{Name: "second", Match: Contains("Leg"), Class: Class{PositionWeight: 5}},
	}
	class, rule := table.Classify(leftLeg)
	assert.Equal(t, "first", rule)
	assert.Equal(t, 3.0, class.PositionWeight)

	class, rule = table.Classify(jaw)
	assert.Empty(t, rule)
	assert.Equal(t, DefaultClass, class)
}

func TestEqualsIsCaseSensitive(t *testing.T) {
	assert.True(t, Equals("RootT.y")("RootT.y"))
	assert.False(t, Equals("RootT.y")("roott.y"))
	assert.False(t, Contains("")("anything"))
}

func TestPoseCost(t *testing.T) {
	m := NewModel()
	src := funcSampler{
		leftLeg: func(t float64) float64 { return t },
		rootY:   func(t float64) float64 { return 2 * t },
	}
	channels := m.Channels([]curve.Binding{leftLeg, rootY})

	// leg: |1-0|*2, equal velocities; root: |2-0|*8, not velocity tracked.
	assert.InDelta(t, (2.0+16.0)/2, m.PoseAndVelocityCost(src, channels, 0, 1), 1e-9)
}

func TestVelocityCostOnlyForTrackedChannels(t *testing.T) {
	m := NewModel()
	wave := func(t float64) float64 { return math.Sin(2 * math.Pi * t) }

	tracked := m.PoseAndVelocityCost(funcSampler{leftLeg: wave}, m.Channels([]curve.Binding{leftLeg}), 0, 0.25)
	untracked := m.PoseAndVelocityCost(funcSampler{jaw: wave}, m.Channels([]curve.Binding{jaw}), 0, 0.25)

	// Pose terms: 2*1 for the leg, 1*1 for the jaw. The leg adds 0.5*|0 - 2pi|.
	assert.InDelta(t, 1.0, untracked, 1e-9)
	assert.InDelta(t, 2+0.5*2*math.Pi, tracked, 1e-2)
}

func TestPoseCostNoChannels(t *testing.T) {
	assert.Equal(t, 0.0, NewModel().PoseAndVelocityCost(funcSampler{}, nil, 0, 1))
}

func TestAmplitudeOverInterval(t *testing.T) {
	m := NewModel()
	ramp := func(t float64) float64 { return t }
	src := funcSampler{leftLeg: ramp, rootY: ramp, hipsX: ramp, jaw: ramp}
	channels := m.Channels([]curve.Binding{leftLeg, rootY, hipsX, jaw})

	// Only the leg and the root height are amplitude tracked.
	assert.InDelta(t, 2*0.6, m.AmplitudeOverInterval(src, channels, 0.2, 0.8), 1e-9)
	assert.Equal(t, 0.0, m.AmplitudeOverInterval(src, m.Channels([]curve.Binding{hipsX, jaw}), 0, 1))
}

func TestAmplitudeConstantChannel(t *testing.T) {
	m := NewModel()
	src := funcSampler{leftLeg: func(float64) float64 { return 3 }}
	assert.Equal(t, 0.0, m.AmplitudeOverInterval(src, m.Channels([]curve.Binding{leftLeg}), 0, 2))
}

func TestCoverageRatio(t *testing.T) {
	assert.Equal(t, 0.0, CoverageRatio(1, 0))
	assert.Equal(t, 0.5, CoverageRatio(1, 2))
	assert.Equal(t, 1.0, CoverageRatio(2, 2))
}

func TestPoseCostProperties(t *testing.T) {
	m := NewModel()
	src := funcSampler{
		leftLeg: func(t float64) float64 { return math.Sin(3 * t) },
		rootY:   func(t float64) float64 { return math.Cos(t) },
		spine:   func(t float64) float64 { return t * t },
	}
	channels := m.Channels([]curve.Binding{leftLeg, rootY, spine})

	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64Range(0, 4).Draw(rt, "a")
		b := rapid.Float64Range(0, 4).Draw(rt, "b")

		ab := m.PoseAndVelocityCost(src, channels, a, b)
		ba := m.PoseAndVelocityCost(src, channels, b, a)
		if ab < 0 {
			rt.Fatalf("cost(%v, %v) = %v, want >= 0", a, b, ab)
		}
		if math.Abs(ab-ba) > 1e-9 {
			rt.Fatalf("cost not symmetric: %v vs %v", ab, ba)
		}
		if self := m.PoseAndVelocityCost(src, channels, a, a); self != 0 {
			rt.Fatalf("cost(%v, %v) = %v, want 0", a, a, self)
		}
	})
}
