package curve

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/five82/looper/internal/util"
)

// clipFile is the raw JSON structure of a baked clip file.
type clipFile struct {
	Name   string      `json:"name"`
	Length float64     `json:"length"`
	Tracks []trackFile `json:"tracks"`
}

type trackFile struct {
	Path     string    `json:"path"`
	Property string    `json:"property"`
	Kind     string    `json:"kind"`
	Tangents string    `json:"tangents"`
	Keys     []keyFile `json:"keys"`
}

type keyFile struct {
	Time  float64  `json:"t"`
	Value float64  `json:"v"`
	In    *float64 `json:"in,omitempty"`
	Out   *float64 `json:"out,omitempty"`
}

// LoadFile loads a clip from a JSON file on disk. The file stem is used as the
// clip name when the file does not carry one.
func LoadFile(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip file: %w", err)
	}

	return Parse(util.GetFileStem(path), data)
}

// Parse parses JSON clip data. fallbackName is used when the data has no name.
func Parse(fallbackName string, data []byte) (*Clip, error) {
	var raw clipFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse clip JSON: %w", err)
	}

	name := raw.Name
	if name == "" {
		name = fallbackName
	}

	if len(raw.Tracks) == 0 {
		return nil, fmt.Errorf("%w: clip %q has no tracks", ErrInvalidCurve, name)
	}

	tracks := make([]Track, 0, len(raw.Tracks))
	seen := make(map[Binding]bool, len(raw.Tracks))
	for i, tf := range raw.Tracks {
		if tf.Property == "" {
			return nil, fmt.Errorf("%w: clip %q track %d has no property", ErrInvalidCurve, name, i)
		}
		kind, err := ParseKind(tf.Kind)
		if err != nil {
			return nil, fmt.Errorf("clip %q track %d: %w", name, i, err)
		}
		mode, err := ParseTangentMode(tf.Tangents)
		if err != nil {
			return nil, fmt.Errorf("clip %q track %d: %w", name, i, err)
		}

		b := Binding{Path: tf.Path, Property: tf.Property, Kind: kind}
		if seen[b] {
			return nil, fmt.Errorf("%w: clip %q has duplicate binding %s", ErrInvalidCurve, name, b)
		}
		seen[b] = true

		keys := make([]Keyframe, len(tf.Keys))
		for j, k := range tf.Keys {
			keys[j] = Keyframe{Time: k.Time, Value: k.Value}
			if k.In != nil {
				keys[j].InTangent = *k.In
			}
			if k.Out != nil {
				keys[j].OutTangent = *k.Out
			}
		}

		c, err := NewCurve(keys, mode)
		if err != nil {
			return nil, fmt.Errorf("clip %q binding %s: %w", name, b, err)
		}
		tracks = append(tracks, Track{Binding: b, Curve: c})
	}

	return NewClip(name, raw.Length, tracks...), nil
}
