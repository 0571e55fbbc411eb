package loop

// FailureReason explains why a search did not succeed.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonNoClip         FailureReason = "no_clip"
	ReasonClipTooShort   FailureReason = "clip_too_short"
	ReasonNoBindings     FailureReason = "no_bindings"
	ReasonNoCandidate    FailureReason = "no_candidate"
	ReasonAboveTolerance FailureReason = "above_tolerance"
)

// Describe returns a human readable form of the reason.
func (r FailureReason) Describe() string {
	switch r {
	case ReasonNone:
		return "loop found"
	case ReasonNoClip:
		return "no clip"
	case ReasonClipTooShort:
		return "clip is shorter than the minimum loop duration"
	case ReasonNoBindings:
		return "clip has no animated channels"
	case ReasonNoCandidate:
		return "no window keeps enough motion"
	case ReasonAboveTolerance:
		return "best match is above the tolerance"
	default:
		return string(r)
	}
}

// Result is the outcome of one search. Failed searches still carry the best
// attempt so callers can show how close the search came.
type Result struct {
	Success bool `json:"success"`

	// Start and End bound the loop in seconds.
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	// StartNormalized and EndNormalized are Start and End over the clip length.
	StartNormalized float64 `json:"start_normalized"`
	EndNormalized   float64 `json:"end_normalized"`

	// Score is 1 - clamp01(Cost), higher is better.
	Score float64 `json:"score"`

	// Cost is the pose and velocity cost of the chosen pair (0 without a candidate).
	Cost float64 `json:"cost"`

	// Coverage is the motion coverage ratio of the chosen window.
	Coverage float64 `json:"coverage"`

	Reason    FailureReason `json:"reason,omitempty"`
	Length    float64       `json:"length"`
	Evaluated int           `json:"evaluated"`
}

// Duration returns End - Start.
func (r Result) Duration() float64 {
	return r.End - r.Start
}

// Stage identifies the phase a progress report belongs to.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageBindings Stage = "bindings"
	StageSearch   Stage = "search"
	StageDone     Stage = "done"
)

// Progress is produced at every suspension point of a run.
type Progress struct {
	Stage Stage `json:"stage"`

	// Fraction is a monotonically non-decreasing completion estimate in [0,1].
	Fraction float64 `json:"fraction"`

	// Duration is the target loop duration being scanned.
	Duration float64 `json:"duration,omitempty"`

	// BestScore is the score of the best candidate so far (0 before any).
	BestScore float64 `json:"best_score"`

	Evaluated int `json:"evaluated"`
}
