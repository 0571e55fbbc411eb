package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/looper/internal/curve"
	"github.com/five82/looper/internal/motion"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Constraints != DefaultConstraints() {
		t.Errorf("expected default constraints, got %+v", cfg.Constraints)
	}
	if cfg.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("expected CacheCapacity=%d, got %d", DefaultCacheCapacity, cfg.CacheCapacity)
	}
	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("expected SampleRate=%v, got %v", DefaultSampleRate, cfg.SampleRate)
	}
	if cfg.Search != DefaultSearch() {
		t.Errorf("expected default search settings, got %+v", cfg.Search)
	}
	if cfg.LooperPreset != nil {
		t.Error("expected no preset by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:         "reversed window is invalid",
			modify:       func(c *Config) { c.Constraints.WindowStart, c.Constraints.WindowEnd = 0.8, 0.2 },
			wantErr:      true,
			wantSentinel: ErrInvalidWindow,
		},
		{
			name:         "window past 1 is invalid",
			modify:       func(c *Config) { c.Constraints.WindowEnd = 1.5 },
			wantErr:      true,
			wantSentinel: ErrInvalidWindow,
		},
		{
			name:    "partial window is valid",
			modify:  func(c *Config) { c.Constraints.WindowStart, c.Constraints.WindowEnd = 0.25, 0.75 },
			wantErr: false,
		},
		{
			name:         "min window fraction above 1 is invalid",
			modify:       func(c *Config) { c.Constraints.MinWindowFraction = 1.2 },
			wantErr:      true,
			wantSentinel: ErrInvalidFraction,
		},
		{
			name:         "negative coverage is invalid",
			modify:       func(c *Config) { c.Constraints.MinMotionCoverage = -0.1 },
			wantErr:      true,
			wantSentinel: ErrInvalidFraction,
		},
		{
			name:         "negative tolerance is invalid",
			modify:       func(c *Config) { c.Constraints.MatchTolerance = -1 },
			wantErr:      true,
			wantSentinel: ErrInvalidTolerance,
		},
		{
			name:         "zero capacity is invalid",
			modify:       func(c *Config) { c.CacheCapacity = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidCache,
		},
		{
			name:         "zero sample rate is invalid",
			modify:       func(c *Config) { c.SampleRate = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidCache,
		},
		{
			name:         "zero duration step is invalid",
			modify:       func(c *Config) { c.Search.DurationStepPercent = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidSearch,
		},
		{
			name:         "zero yield cadence is invalid",
			modify:       func(c *Config) { c.Search.InnerYieldEvery = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidSearch,
		},
		{
			name:         "weight rule without name is invalid",
			modify:       func(c *Config) { c.Weights = []WeightRule{{Weight: 1}} },
			wantErr:      true,
			wantSentinel: ErrInvalidWeight,
		},
		{
			name: "weight rule with both matchers is invalid",
			modify: func(c *Config) {
				c.Weights = []WeightRule{{Name: "x", Equals: "a", Contains: []string{"b"}, Weight: 1}}
			},
			wantErr:      true,
			wantSentinel: ErrInvalidWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestParsePreset(t *testing.T) {
	tests := []struct {
		input        string
		want         Preset
		wantErr      bool
		wantSentinel error
	}{
		{"strict", PresetStrict, false, nil},
		{"STRICT", PresetStrict, false, nil},
		{"Balanced", PresetBalanced, false, nil},
		{"balanced", PresetBalanced, false, nil},
		{"loose", PresetLoose, false, nil},
		{"LOOSE", PresetLoose, false, nil},
		{"invalid", "", true, ErrInvalidPreset},
		{"", "", true, ErrInvalidPreset},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePreset(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePreset(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("ParsePreset(%q) error = %v, want sentinel %v", tt.input, err, tt.wantSentinel)
			}
			if got != tt.want {
				t.Errorf("ParsePreset(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestApplyPreset(t *testing.T) {
	cfg := NewConfig()
	cfg.Constraints.WindowStart = 0.1
	cfg.Constraints.MatchTolerance = 0.9

	cfg.ApplyPreset(PresetStrict)

	if cfg.LooperPreset == nil || *cfg.LooperPreset != PresetStrict {
		t.Error("expected LooperPreset to be set to Strict")
	}
	if cfg.PresetName != "strict" {
		t.Errorf("expected PresetName=strict, got %q", cfg.PresetName)
	}

	strict := GetPresetValues(PresetStrict)
	if cfg.Constraints.MatchTolerance != strict.MatchTolerance {
		t.Errorf("expected MatchTolerance=%v, got %v", strict.MatchTolerance, cfg.Constraints.MatchTolerance)
	}
	if cfg.Constraints.WindowStart != 0.1 {
		t.Error("presets must not touch the search window")
	}
}

func TestGetPresetValues(t *testing.T) {
	strict := GetPresetValues(PresetStrict)
	balanced := GetPresetValues(PresetBalanced)
	loose := GetPresetValues(PresetLoose)

	if !(strict.MatchTolerance < balanced.MatchTolerance && balanced.MatchTolerance < loose.MatchTolerance) {
		t.Error("expected tolerance to grow from strict to loose")
	}
	if !(strict.MinMotionCoverage > balanced.MinMotionCoverage && balanced.MinMotionCoverage > loose.MinMotionCoverage) {
		t.Error("expected coverage demand to shrink from strict to loose")
	}
	if balanced.MinWindowFraction != DefaultMinWindowFraction {
		t.Errorf("expected balanced to match defaults, got %+v", balanced)
	}
}

func TestClamped(t *testing.T) {
	c := Constraints{WindowStart: -0.5, WindowEnd: 1.5}.Clamped()
	if c.WindowStart != 0 || c.WindowEnd != 1 {
		t.Errorf("Clamped() = %v-%v, want 0-1", c.WindowStart, c.WindowEnd)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input     string
		wantStart float64
		wantEnd   float64
		wantErr   bool
	}{
		{"0-1", 0, 1, false},
		{"0.25-0.75", 0.25, 0.75, false},
		{" 0.1 - 0.9 ", 0.1, 0.9, false},
		{"0.5", 0, 0, true},
		{"a-1", 0, 0, true},
		{"0-b", 0, 0, true},
		{"0.8-0.2", 0, 0, true},
		{"0-2", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			start, end, err := ParseWindow(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindow(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Errorf("ParseWindow(%q) error = %v, want ErrInvalidWindow", tt.input, err)
				}
				return
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("ParseWindow(%q) = %v, %v, want %v, %v", tt.input, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
preset: loose
constraints:
  window_start: 0.2
  match_tolerance: 0.07
cache_capacity: 5
search:
  inner_yield_every: 10
weights:
  - name: root
    equals: RootT.y
    weight: 4
    amplitude: true
  - name: rest
    weight: 1
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.LooperPreset == nil || *cfg.LooperPreset != PresetLoose {
		t.Error("expected loose preset to be applied")
	}
	// Explicit values win over the preset.
	if cfg.Constraints.MatchTolerance != 0.07 {
		t.Errorf("MatchTolerance = %v, want 0.07", cfg.Constraints.MatchTolerance)
	}
	if cfg.Constraints.MinMotionCoverage != LoosePresetMinMotionCoverage {
		t.Errorf("MinMotionCoverage = %v, want preset value", cfg.Constraints.MinMotionCoverage)
	}
	if cfg.Constraints.WindowStart != 0.2 || cfg.Constraints.WindowEnd != 1 {
		t.Errorf("window = %v-%v, want 0.2-1", cfg.Constraints.WindowStart, cfg.Constraints.WindowEnd)
	}
	if cfg.CacheCapacity != 5 || cfg.SampleRate != DefaultSampleRate {
		t.Errorf("cache = %d @ %v, want 5 @ default", cfg.CacheCapacity, cfg.SampleRate)
	}
	if cfg.Search.InnerYieldEvery != 10 || cfg.Search.OuterYieldEvery != DefaultOuterYieldEvery {
		t.Errorf("search = %+v", cfg.Search)
	}

	table := cfg.Table()
	if len(table) != 2 {
		t.Fatalf("Table() has %d rules, want 2", len(table))
	}
	class, rule := table.Classify(curve.Binding{Property: "RootT.y"})
	if rule != "root" || class.PositionWeight != 4 || !class.TrackAmplitude {
		t.Errorf("RootT.y classified as %q %+v", rule, class)
	}
	_, rule = table.Classify(curve.Binding{Property: "Jaw Close"})
	if rule != "rest" {
		t.Errorf("Jaw Close classified as %q, want rest", rule)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		sentinel error
	}{
		{"bad yaml", "constraints: [", ErrParseConfig},
		{"bad preset", "preset: extreme", ErrInvalidPreset},
		{"bad values", "constraints: {match_tolerance: -1}", ErrInvalidTolerance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Parse() error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "looper.yaml")
	if err := os.WriteFile(path, []byte("sample_rate: 60\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.SampleRate != 60 {
		t.Errorf("SampleRate = %v, want 60", cfg.SampleRate)
	}
	if len(cfg.Table()) != len(motion.DefaultTable()) {
		t.Error("expected default weighting table without configured weights")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
