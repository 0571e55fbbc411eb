package curve

import "errors"

var (
	// ErrNilClip is returned when a provider is called without a clip handle.
	ErrNilClip = errors.New("nil clip handle")

	// ErrClipReleased is returned when a released clip handle is used.
	ErrClipReleased = errors.New("clip handle released")

	// ErrBindingNotFound is returned when a binding is not part of the clip.
	ErrBindingNotFound = errors.New("binding not found in clip")

	// ErrInvalidCurve is returned for curves with unordered or missing keys.
	ErrInvalidCurve = errors.New("invalid curve data")

	// ErrInvalidKind is returned for unknown binding kinds.
	ErrInvalidKind = errors.New("invalid binding kind")

	// ErrInvalidTangentMode is returned for unknown tangent modes.
	ErrInvalidTangentMode = errors.New("invalid tangent mode")
)
