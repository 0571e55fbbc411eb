package config

import (
	"fmt"

	"github.com/five82/looper/internal/motion"
)

// WeightRule is the file form of a channel weighting rule.
// Exactly one of Equals or Contains selects the channels; neither matches all.
type WeightRule struct {
	Name      string   `yaml:"name"`
	Equals    string   `yaml:"equals,omitempty"`
	Contains  []string `yaml:"contains,omitempty"`
	Weight    float64  `yaml:"weight"`
	Velocity  bool     `yaml:"velocity,omitempty"`
	Amplitude bool     `yaml:"amplitude,omitempty"`
}

// Validate checks the rule for errors.
func (w WeightRule) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidWeight)
	}
	if w.Equals != "" && len(w.Contains) > 0 {
		return fmt.Errorf("%w: %s sets both equals and contains", ErrInvalidWeight, w.Name)
	}
	if w.Weight < 0 {
		return fmt.Errorf("%w: %s weight must not be negative, got %v", ErrInvalidWeight, w.Name, w.Weight)
	}
	return nil
}

// Rule converts the file form into a motion rule.
func (w WeightRule) Rule() motion.Rule {
	var match motion.Matcher
	switch {
	case w.Equals != "":
		match = motion.Equals(w.Equals)
	case len(w.Contains) > 0:
		match = motion.Contains(w.Contains...)
	default:
		match = motion.Any()
	}
	return motion.Rule{
		Name:  w.Name,
		Match: match,
		Class: motion.Class{
			PositionWeight: w.Weight,
			TrackVelocity:  w.Velocity,
			TrackAmplitude: w.Amplitude,
		},
	}
}

// Table returns the weighting table: the configured rules in order, or the
// default table when none are configured.
func (c *Config) Table() motion.Table {
	if len(c.Weights) == 0 {
		return motion.DefaultTable()
	}
	table := make(motion.Table, len(c.Weights))
	for i, w := range c.Weights {
		table[i] = w.Rule()
	}
	return table
}
