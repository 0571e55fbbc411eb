package curve

import "fmt"

// Baked is the default Provider; it reads curves straight from in-memory clips.
type Baked struct{}

func checkClip(clip *Clip) error {
	if clip == nil {
		return ErrNilClip
	}
	if clip.released {
		return ErrClipReleased
	}
	return nil
}

// Length returns the clip duration.
func (Baked) Length(clip *Clip) (float64, error) {
	if err := checkClip(clip); err != nil {
		return 0, err
	}
	return clip.length, nil
}

// Bindings returns the clip bindings in track order.
func (Baked) Bindings(clip *Clip) ([]Binding, error) {
	if err := checkClip(clip); err != nil {
		return nil, err
	}
	out := make([]Binding, len(clip.tracks))
	for i, tr := range clip.tracks {
		out[i] = tr.Binding
	}
	return out, nil
}

// Curve returns the curve function of b and its key count.
func (Baked) Curve(clip *Clip, b Binding) (Func, int, error) {
	if err := checkClip(clip); err != nil {
		return nil, 0, err
	}
	for _, tr := range clip.tracks {
		if tr.Binding == b {
			return tr.Curve.Func(), tr.Curve.KeyCount(), nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %s", ErrBindingNotFound, b)
}
