package curve

import "math"

// hermiteInterp evaluates a cubic Hermite spline at xi given interval [xk, xk1],
// function values [yk, yk1], and derivatives [dk, dk1].
func hermiteInterp(xk, xk1, yk, yk1, dk, dk1, xi float64) float64 {
	h := xk1 - xk
	t := (xi - xk) / h
	t2 := t * t
	t3 := t2 * t

	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	return h00*yk + h10*h*dk + h01*yk1 + h11*h*dk1
}

// segmentSlopes returns the slope of every segment between consecutive keys.
func segmentSlopes(keys []Keyframe) []float64 {
	slopes := make([]float64, len(keys)-1)
	for i := range slopes {
		slopes[i] = (keys[i+1].Value - keys[i].Value) / (keys[i+1].Time - keys[i].Time)
	}
	return slopes
}

// pchipTangents computes Fritsch-Carlson style monotone tangents for every key.
// End keys take the slope of their only segment.
func pchipTangents(keys []Keyframe) []float64 {
	n := len(keys)
	d := make([]float64, n)
	if n < 2 {
		return d
	}

	s := segmentSlopes(keys)
	d[0] = s[0]
	d[n-1] = s[n-2]

	for i := 1; i < n-1; i++ {
		sPrev, sNext := s[i-1], s[i]
		if sPrev*sNext <= 0 {
			d[i] = 0
			continue
		}
		hPrev := keys[i].Time - keys[i-1].Time
		hNext := keys[i+1].Time - keys[i].Time
		w1 := 2*hNext + hPrev
		w2 := 2*hPrev + hNext
		d[i] = (w1 + w2) / (w1/sPrev + w2/sNext)
	}

	// Limit tangents so each segment stays monotone.
	for i := 0; i < n-1; i++ {
		if s[i] == 0 {
			d[i] = 0
			d[i+1] = 0
			continue
		}
		alpha := d[i] / s[i]
		beta := d[i+1] / s[i]
		tau := alpha*alpha + beta*beta
		if tau > maxTau2 {
			scale := 3.0 / math.Sqrt(tau)
			d[i] = scale * alpha * s[i]
			d[i+1] = scale * beta * s[i]
		}
	}

	return d
}

// maxTau2 is the maximum allowed tau squared for monotonicity preservation in PCHIP.
const maxTau2 = 9.0

// applyTangents fills key tangents in place according to mode.
func applyTangents(keys []Keyframe, mode TangentMode) {
	if len(keys) < 2 {
		return
	}

	switch mode {
	case TangentLinear:
		s := segmentSlopes(keys)
		for i := range keys {
			if i > 0 {
				keys[i].InTangent = s[i-1]
			} else {
				keys[i].InTangent = s[0]
			}
			if i < len(s) {
				keys[i].OutTangent = s[i]
			} else {
				keys[i].OutTangent = s[len(s)-1]
			}
		}
	case TangentAuto:
		d := pchipTangents(keys)
		for i := range keys {
			keys[i].InTangent = d[i]
			keys[i].OutTangent = d[i]
		}
	}
}
