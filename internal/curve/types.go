// Package curve provides the baked animation clip model consumed by the loop search:
// channel bindings, keyframe curves evaluated as continuous functions, and the
// Provider interface the curve cache reads clips through.
package curve

import (
	"fmt"
	"strings"
)

// Kind is the category of a channel binding.
type Kind string

const (
	// KindAnimator is a humanoid muscle or root motion channel.
	KindAnimator Kind = "animator"
	// KindTransform is a raw transform channel (position, rotation, scale component).
	KindTransform Kind = "transform"
	// KindBlendShape is a blend shape weight channel.
	KindBlendShape Kind = "blendshape"
	// KindOther is any other animated float property.
	KindOther Kind = "other"
)

// ParseKind converts a kind string to a Kind value (case-insensitive).
// An empty string maps to KindAnimator.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "animator":
		return KindAnimator, nil
	case "transform":
		return KindTransform, nil
	case "blendshape":
		return KindBlendShape, nil
	case "other":
		return KindOther, nil
	default:
		return "", fmt.Errorf("%w: %q, valid options: animator, transform, blendshape, other", ErrInvalidKind, s)
	}
}

// Binding identifies one independently animated scalar channel within a clip.
type Binding struct {
	// Path is the hierarchy path of the animated object ("" for the root).
	Path string

	// Property is the animated property name (e.g. "RootT.y", "Left Upper Leg Front-Back").
	Property string

	// Kind is the binding category.
	Kind Kind
}

// Name returns the stable channel name used by the weighting heuristics.
func (b Binding) Name() string {
	if b.Path == "" {
		return b.Property
	}
	return b.Path + "." + b.Property
}

func (b Binding) String() string {
	return fmt.Sprintf("%s[%s]", b.Name(), b.Kind)
}

// Keyframe is a single stored key of a curve.
type Keyframe struct {
	Time       float64
	Value      float64
	InTangent  float64
	OutTangent float64
}

// TangentMode controls how keyframe tangents are derived when a curve is built.
type TangentMode int

const (
	// TangentAuto computes monotone (PCHIP) tangents from neighboring keys.
	TangentAuto TangentMode = iota
	// TangentLinear uses segment slopes, giving piecewise linear playback.
	TangentLinear
	// TangentExplicit keeps the tangents stored on the keys.
	TangentExplicit
)

// ParseTangentMode converts a tangent mode string to a TangentMode value.
func ParseTangentMode(s string) (TangentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return TangentAuto, nil
	case "linear":
		return TangentLinear, nil
	case "explicit":
		return TangentExplicit, nil
	default:
		return 0, fmt.Errorf("%w: %q, valid options: auto, linear, explicit", ErrInvalidTangentMode, s)
	}
}

// Func is the continuous value of a channel as a function of time in seconds.
type Func func(t float64) float64

// Provider exposes the curves of a clip to the curve cache.
//
// Implementations return an error when the clip handle is invalid (for example
// released); such errors are programming or lifecycle bugs and are propagated
// to callers rather than reported as search outcomes.
type Provider interface {
	// Length returns the clip duration in seconds.
	Length(clip *Clip) (float64, error)

	// Bindings returns all channel bindings of the clip.
	Bindings(clip *Clip) ([]Binding, error)

	// Curve returns the continuous curve function of a binding and its keyframe count.
	Curve(clip *Clip, b Binding) (Func, int, error)
}
