package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidPreset indicates an unknown preset name was provided.
	ErrInvalidPreset = errors.New("invalid preset")

	// ErrInvalidWindow indicates a search window outside [0,1] or with start after end.
	ErrInvalidWindow = errors.New("invalid search window")

	// ErrInvalidFraction indicates a fraction or ratio outside its valid range.
	ErrInvalidFraction = errors.New("fraction out of range")

	// ErrInvalidTolerance indicates a negative match tolerance.
	ErrInvalidTolerance = errors.New("match tolerance out of range")

	// ErrInvalidCache indicates a non-positive cache capacity or sample rate.
	ErrInvalidCache = errors.New("cache configuration invalid")

	// ErrInvalidSearch indicates out of range search tunables.
	ErrInvalidSearch = errors.New("search configuration invalid")

	// ErrInvalidWeight indicates a malformed weighting rule.
	ErrInvalidWeight = errors.New("weighting rule invalid")

	// ErrParseConfig indicates a config file that could not be decoded.
	ErrParseConfig = errors.New("config file invalid")
)
