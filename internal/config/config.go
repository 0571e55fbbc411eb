// Package config provides configuration types and defaults for looper.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Default constants
const (
	// DefaultWindowStart is the normalized start of the search window.
	DefaultWindowStart = 0.0

	// DefaultWindowEnd is the normalized end of the search window.
	DefaultWindowEnd = 1.0

	// DefaultMinWindowFraction is the minimum loop duration as a fraction of clip length.
	DefaultMinWindowFraction = 0.25

	// DefaultMinMotionCoverage is the minimum candidate to baseline amplitude ratio.
	DefaultMinMotionCoverage = 0.3

	// DefaultMatchTolerance is the highest cost accepted as a successful loop.
	DefaultMatchTolerance = 0.1

	// DefaultCacheCapacity is the number of clips kept in the curve cache.
	DefaultCacheCapacity = 20

	// DefaultSampleRate is the time grid density in samples per second.
	DefaultSampleRate = 30.0

	// DefaultAbsoluteMinDuration is the floor of the minimum loop duration in seconds.
	DefaultAbsoluteMinDuration = 0.05

	// DefaultDurationStepPercent is the duration decrement as a fraction of clip length.
	DefaultDurationStepPercent = 0.02

	// DefaultExcellentCost stops the duration scan early once reached.
	DefaultExcellentCost = 0.01

	// DefaultOuterYieldEvery is the number of durations scanned between yields.
	DefaultOuterYieldEvery = 2

	// DefaultInnerYieldEvery is the number of start times scanned between yields.
	DefaultInnerYieldEvery = 24

	// StrictPresetMinWindowFraction keeps loops long.
	StrictPresetMinWindowFraction = 0.4

	// StrictPresetMinMotionCoverage demands most of the clip motion.
	StrictPresetMinMotionCoverage = 0.5

	// StrictPresetMatchTolerance accepts only close matches.
	StrictPresetMatchTolerance = 0.05

	// LoosePresetMinWindowFraction allows short loops.
	LoosePresetMinWindowFraction = 0.15

	// LoosePresetMinMotionCoverage accepts loops with little motion.
	LoosePresetMinMotionCoverage = 0.15

	// LoosePresetMatchTolerance accepts visible seams.
	LoosePresetMatchTolerance = 0.2
)

// Preset represents a looper constraint grouping.
type Preset string

const (
	PresetStrict   Preset = "strict"
	PresetBalanced Preset = "balanced"
	PresetLoose    Preset = "loose"
)

// ParsePreset parses a string into a Preset.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(s) {
	case "strict":
		return PresetStrict, nil
	case "balanced":
		return PresetBalanced, nil
	case "loose":
		return PresetLoose, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: strict, balanced, loose", ErrInvalidPreset, s)
	}
}

// String returns the string representation of the preset.
func (p Preset) String() string {
	return string(p)
}

// PresetValues contains bundled constraint values for a preset.
type PresetValues struct {
	MinWindowFraction float64
	MinMotionCoverage float64
	MatchTolerance    float64
}

// GetPresetValues returns the values for a given preset.
func GetPresetValues(p Preset) PresetValues {
	switch p {
	case PresetStrict:
		return PresetValues{
			MinWindowFraction: StrictPresetMinWindowFraction,
			MinMotionCoverage: StrictPresetMinMotionCoverage,
			MatchTolerance:    StrictPresetMatchTolerance,
		}
	case PresetLoose:
		return PresetValues{
			MinWindowFraction: LoosePresetMinWindowFraction,
			MinMotionCoverage: LoosePresetMinMotionCoverage,
			MatchTolerance:    LoosePresetMatchTolerance,
		}
	default:
		return PresetValues{
			MinWindowFraction: DefaultMinWindowFraction,
			MinMotionCoverage: DefaultMinMotionCoverage,
			MatchTolerance:    DefaultMatchTolerance,
		}
	}
}

// Constraints are the caller-supplied limits of one search.
type Constraints struct {
	// WindowStart and WindowEnd restrict the loop to a normalized part of the clip.
	WindowStart float64 `yaml:"window_start"`
	WindowEnd   float64 `yaml:"window_end"`

	// MinWindowFraction is the minimum loop duration as a fraction of clip length.
	MinWindowFraction float64 `yaml:"min_window_fraction"`

	// MinMotionCoverage is the minimum ratio of loop amplitude to window amplitude.
	MinMotionCoverage float64 `yaml:"min_motion_coverage"`

	// MatchTolerance is the highest pose cost accepted as a success.
	MatchTolerance float64 `yaml:"match_tolerance"`
}

// DefaultConstraints returns the balanced constraints over the whole clip.
func DefaultConstraints() Constraints {
	return Constraints{
		WindowStart:       DefaultWindowStart,
		WindowEnd:         DefaultWindowEnd,
		MinWindowFraction: DefaultMinWindowFraction,
		MinMotionCoverage: DefaultMinMotionCoverage,
		MatchTolerance:    DefaultMatchTolerance,
	}
}

// Clamped returns a copy with both window bounds clamped to [0,1].
func (c Constraints) Clamped() Constraints {
	c.WindowStart = clamp01(c.WindowStart)
	c.WindowEnd = clamp01(c.WindowEnd)
	return c
}

// Validate checks the constraints for errors.
func (c Constraints) Validate() error {
	if c.WindowStart < 0 || c.WindowEnd > 1 || c.WindowStart >= c.WindowEnd {
		return fmt.Errorf("%w: must satisfy 0 <= start < end <= 1, got %v-%v", ErrInvalidWindow, c.WindowStart, c.WindowEnd)
	}
	if c.MinWindowFraction < 0 || c.MinWindowFraction > 1 {
		return fmt.Errorf("%w: min_window_fraction must be 0-1, got %v", ErrInvalidFraction, c.MinWindowFraction)
	}
	if c.MinMotionCoverage < 0 {
		return fmt.Errorf("%w: min_motion_coverage must not be negative, got %v", ErrInvalidFraction, c.MinMotionCoverage)
	}
	if c.MatchTolerance < 0 {
		return fmt.Errorf("%w: must not be negative, got %v", ErrInvalidTolerance, c.MatchTolerance)
	}
	return nil
}

// Search holds the engine tunables.
type Search struct {
	AbsoluteMinDuration float64 `yaml:"absolute_min_duration"`
	DurationStepPercent float64 `yaml:"duration_step_percent"`
	ExcellentCost       float64 `yaml:"excellent_cost"`
	OuterYieldEvery     int     `yaml:"outer_yield_every"`
	InnerYieldEvery     int     `yaml:"inner_yield_every"`
}

// DefaultSearch returns the stock engine tunables.
func DefaultSearch() Search {
	return Search{
		AbsoluteMinDuration: DefaultAbsoluteMinDuration,
		DurationStepPercent: DefaultDurationStepPercent,
		ExcellentCost:       DefaultExcellentCost,
		OuterYieldEvery:     DefaultOuterYieldEvery,
		InnerYieldEvery:     DefaultInnerYieldEvery,
	}
}

// Validate checks the tunables for errors.
func (s Search) Validate() error {
	if s.AbsoluteMinDuration <= 0 {
		return fmt.Errorf("%w: absolute_min_duration must be positive, got %v", ErrInvalidSearch, s.AbsoluteMinDuration)
	}
	if s.DurationStepPercent <= 0 || s.DurationStepPercent > 1 {
		return fmt.Errorf("%w: duration_step_percent must be in (0,1], got %v", ErrInvalidSearch, s.DurationStepPercent)
	}
	if s.ExcellentCost < 0 {
		return fmt.Errorf("%w: excellent_cost must not be negative, got %v", ErrInvalidSearch, s.ExcellentCost)
	}
	if s.OuterYieldEvery < 1 || s.InnerYieldEvery < 1 {
		return fmt.Errorf("%w: yield cadences must be at least 1, got %d/%d",
			ErrInvalidSearch, s.OuterYieldEvery, s.InnerYieldEvery)
	}
	return nil
}

// Config holds all configuration for loop searches.
type Config struct {
	// PresetName names the preset the file or flags selected ("" for none).
	PresetName string `yaml:"preset"`

	Constraints Constraints `yaml:"constraints"`

	// Clip curve cache
	CacheCapacity int     `yaml:"cache_capacity"`
	SampleRate    float64 `yaml:"sample_rate"`

	Search Search `yaml:"search"`

	// Weights replaces the default channel weighting when non-empty.
	Weights []WeightRule `yaml:"weights"`

	// Selected preset (optional)
	LooperPreset *Preset `yaml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Constraints:   DefaultConstraints(),
		CacheCapacity: DefaultCacheCapacity,
		SampleRate:    DefaultSampleRate,
		Search:        DefaultSearch(),
	}
}

// ApplyPreset applies the given preset to the config.
func (c *Config) ApplyPreset(p Preset) {
	values := GetPresetValues(p)
	c.LooperPreset = &p
	c.PresetName = p.String()
	c.Constraints.MinWindowFraction = values.MinWindowFraction
	c.Constraints.MinMotionCoverage = values.MinMotionCoverage
	c.Constraints.MatchTolerance = values.MatchTolerance
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Constraints.Validate(); err != nil {
		return err
	}

	if c.CacheCapacity < 1 {
		return fmt.Errorf("%w: cache_capacity must be at least 1, got %d", ErrInvalidCache, c.CacheCapacity)
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive, got %v", ErrInvalidCache, c.SampleRate)
	}

	if err := c.Search.Validate(); err != nil {
		return err
	}

	for i, w := range c.Weights {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("weights[%d]: %w", i, err)
		}
	}

	return nil
}

// ParseWindow parses a normalized search window string (e.g., "0.25-0.75").
func ParseWindow(s string) (start, end float64, err error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: format %q, expected 'start-end' (e.g., '0-1')", ErrInvalidWindow, s)
	}

	start, err = strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start %q: %w", ErrInvalidWindow, lo, err)
	}

	end, err = strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end %q: %w", ErrInvalidWindow, hi, err)
	}

	if start < 0 || end > 1 || start >= end {
		return 0, 0, fmt.Errorf("%w: must satisfy 0 <= start < end <= 1, got %v-%v", ErrInvalidWindow, start, end)
	}

	return start, end, nil
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
