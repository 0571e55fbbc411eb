// Package motion implements the pose, velocity and amplitude measures used to score
// loop candidates, together with the declarative table that weights channels by name.
package motion

import (
	"strings"

	"github.com/five82/looper/internal/curve"
)

// Matcher reports whether a channel name belongs to a rule.
type Matcher func(name string) bool

// Equals matches a channel name exactly.
func Equals(s string) Matcher {
	return func(name string) bool {
		return name == s
	}
}

// Contains matches channel names containing any of subs, ignoring case.
func Contains(subs ...string) Matcher {
	lowered := make([]string, len(subs))
	for i, s := range subs {
		lowered[i] = strings.ToLower(s)
	}
	return func(name string) bool {
		n := strings.ToLower(name)
		for _, s := range lowered {
			if s != "" && strings.Contains(n, s) {
				return true
			}
		}
		return false
	}
}

// Any matches every channel name.
func Any() Matcher {
	return func(string) bool { return true }
}

// Class is the weighting applied to a matched channel.
type Class struct {
	// PositionWeight scales the pose difference of the channel.
	PositionWeight float64

	// TrackVelocity adds a velocity difference term for the channel.
	TrackVelocity bool

	// TrackAmplitude counts the channel towards motion amplitude.
	TrackAmplitude bool
}

// DefaultClass applies to channels no rule matches.
var DefaultClass = Class{PositionWeight: 1}

// Rule binds a channel name predicate to a weight class.
type Rule struct {
	Name  string
	Match Matcher
	Class Class
}

// Table is an ordered list of rules. The first matching rule wins.
type Table []Rule

// DefaultTable returns the stock humanoid weighting.
// Root height dominates, limbs and hips get a medium boost. Hips drive velocity
// but not amplitude, spine drives amplitude but not velocity.
func DefaultTable() Table {
	return Table{
		{Name: "root-vertical", Match: Equals("RootT.y"), Class: Class{PositionWeight: 8, TrackAmplitude: true}},
		{Name: "legs", Match: Contains("Leg", "Foot"), Class: Class{PositionWeight: 2, TrackVelocity: true, TrackAmplitude: true}},
		{Name: "arms", Match: Contains("Arm"), Class: Class{PositionWeight: 2, TrackVelocity: true, TrackAmplitude: true}},
		{Name: "hips", Match: Contains("Hips", "Hip"), Class: Class{PositionWeight: 2, TrackVelocity: true}},
		{Name: "spine", Match: Contains("Spine", "Chest"), Class: Class{PositionWeight: 1, TrackAmplitude: true}},
		{Name: "default", Match: Any(), Class: DefaultClass},
	}
}

// Classify returns the class of b and the name of the rule that matched.
// An empty rule name means no rule matched and DefaultClass applies.
func (t Table) Classify(b curve.Binding) (Class, string) {
	name := b.Name()
	for _, r := range t {
		if r.Match != nil && r.Match(name) {
			return r.Class, r.Name
		}
	}
	return DefaultClass, ""
}

// Channel is a binding with its resolved weight class.
type Channel struct {
	Binding curve.Binding
	Class   Class
}

// Channels classifies bindings once so the cost functions avoid repeated name matching.
func (t Table) Channels(bindings []curve.Binding) []Channel {
	out := make([]Channel, len(bindings))
	for i, b := range bindings {
		class, _ := t.Classify(b)
		out[i] = Channel{Binding: b, Class: class}
	}
	return out
}
