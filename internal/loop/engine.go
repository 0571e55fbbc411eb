// Package loop implements the loop point search: it scans candidate durations and
// start times over a clip's cached time grid and keeps the pair whose poses match
// best while retaining enough of the clip's motion.
//
// A search is a cooperative routine. Run.Steps produces a Progress value at every
// suspension point so a host loop can interleave other work between bursts.
package loop

import (
	"context"
	"errors"
	"iter"
	"math"

	"github.com/five82/looper/internal/clipcache"
	"github.com/five82/looper/internal/config"
	"github.com/five82/looper/internal/curve"
	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/logging"
	"github.com/five82/looper/internal/motion"
)

// spanEpsilon absorbs float drift when comparing durations against the minimum loop.
const spanEpsilon = 1e-9

// errStopped is the cancellation cause when the caller stops iterating a run.
var errStopped = errors.New("caller stopped iterating the search")

// Engine runs loop searches against a clip cache.
// An Engine and its cache belong to one goroutine at a time.
type Engine struct {
	Cache    *clipcache.Cache
	Model    *motion.Model
	Settings config.Search
}

// NewEngine creates an engine. A nil cache gets a default animator-channel cache,
// a nil model the default weighting, and zero settings the defaults.
func NewEngine(cache *clipcache.Cache, model *motion.Model, settings config.Search) *Engine {
	if cache == nil {
		cache = clipcache.New(nil, config.DefaultCacheCapacity, config.DefaultSampleRate, curve.KindAnimator)
	}
	if model == nil {
		model = motion.NewModel()
	}
	return &Engine{
		Cache:    cache,
		Model:    model,
		Settings: withDefaults(settings),
	}
}

func withDefaults(s config.Search) config.Search {
	d := config.DefaultSearch()
	if s.AbsoluteMinDuration <= 0 {
		s.AbsoluteMinDuration = d.AbsoluteMinDuration
	}
	if s.DurationStepPercent <= 0 {
		s.DurationStepPercent = d.DurationStepPercent
	}
	if s.ExcellentCost < 0 {
		s.ExcellentCost = d.ExcellentCost
	}
	if s.OuterYieldEvery < 1 {
		s.OuterYieldEvery = d.OuterYieldEvery
	}
	if s.InnerYieldEvery < 1 {
		s.InnerYieldEvery = d.InnerYieldEvery
	}
	return s
}

// Search runs a search to completion, calling onProgress after every suspension point.
// Unusable clips and unmatched loops are reported in the Result; the error is
// reserved for provider failures and cancellation.
func (e *Engine) Search(ctx context.Context, clip *curve.Clip, c config.Constraints, onProgress func(Progress)) (Result, error) {
	run := e.Start(ctx, clip, c)
	for p := range run.Steps() {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return run.Result()
}

// Start prepares a search without running it. Drive it with Run.Steps.
func (e *Engine) Start(ctx context.Context, clip *curve.Clip, c config.Constraints) *Run {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Run{engine: e, ctx: ctx, clip: clip, constraints: c}
}

// Run is one resumable search.
type Run struct {
	engine      *Engine
	ctx         context.Context
	clip        *curve.Clip
	constraints config.Constraints

	started  bool
	finished bool
	result   Result
	err      error
	fraction float64
}

// Steps returns the search as an iterator. Each value marks a suspension point;
// the search resumes when the consumer asks for the next value. Breaking out of
// the loop, or cancelling the context, ends the run with a cancellation error.
// A run can be iterated once.
func (r *Run) Steps() iter.Seq[Progress] {
	return func(yield func(Progress) bool) {
		if r.started {
			return
		}
		r.started = true

		suspend := func(p Progress) error {
			if err := r.ctx.Err(); err != nil {
				return coreerrors.NewCancelledError(err)
			}
			p.Fraction = r.advance(p.Fraction)
			if !yield(p) {
				return coreerrors.NewCancelledError(errStopped)
			}
			if err := r.ctx.Err(); err != nil {
				return coreerrors.NewCancelledError(err)
			}
			return nil
		}

		r.result, r.err = r.execute(suspend)
		r.finished = true
		if r.err != nil {
			logging.Debug("loop search aborted", "clip", clipName(r.clip), "error", r.err)
			return
		}

		yield(Progress{
			Stage:     StageDone,
			Fraction:  r.advance(1),
			BestScore: r.result.Score,
			Evaluated: r.result.Evaluated,
		})
	}
}

// Result returns the outcome once Steps has been fully consumed.
func (r *Run) Result() (Result, error) {
	if !r.finished {
		return Result{}, coreerrors.NewOperationFailedError("search run has not finished", nil)
	}
	return r.result, r.err
}

// Done reports whether the run has finished, successfully or not.
func (r *Run) Done() bool {
	return r.finished
}

// advance keeps reported progress monotonic and within [0,1].
func (r *Run) advance(f float64) float64 {
	f = clamp01(f)
	if f < r.fraction {
		return r.fraction
	}
	r.fraction = f
	return f
}

// window is the desired search span in seconds together with its grid indices.
type window struct {
	length   float64
	minLoop  float64
	start    float64
	end      float64
	startIdx int
	endIdx   int
}

func (r *Run) execute(suspend func(Progress) error) (Result, error) {
	e := r.engine

	if r.clip == nil {
		return failure(0, ReasonNoClip), nil
	}

	length, err := e.Cache.Provider().Length(r.clip)
	if err != nil {
		return Result{}, coreerrors.NewProviderError(r.clip.Name, err)
	}

	c := r.constraints.Clamped()
	w := window{
		length:  length,
		minLoop: max(e.Settings.AbsoluteMinDuration, length*c.MinWindowFraction),
	}
	if length < w.minLoop {
		return failure(length, ReasonClipTooShort), nil
	}

	w.start = c.WindowStart * length
	w.end = c.WindowEnd * length
	if w.end-w.start < w.minLoop {
		w.end = w.start + w.minLoop
		if w.end > length {
			w.end = length
			w.start = max(0, length-w.minLoop)
		}
	}

	if err := suspend(Progress{Stage: StageSetup, Fraction: 0.02}); err != nil {
		return Result{}, err
	}

	entry, err := e.Cache.GetOrBuild(r.clip)
	if err != nil {
		return Result{}, err
	}
	channels := e.Model.Channels(entry.Bindings)
	if len(channels) == 0 {
		return failure(length, ReasonNoBindings), nil
	}

	if err := suspend(Progress{Stage: StageBindings, Fraction: 0.05}); err != nil {
		return Result{}, err
	}

	// The end index never rounds past the window so loops stay inside it.
	w.startIdx = entry.NearestIndex(w.start)
	w.endIdx = entry.FloorIndex(w.end + spanEpsilon)

	return r.scan(entry, channels, w, c, suspend)
}

// best tracks the lowest cost candidate seen.
type best struct {
	cost     float64
	start    float64
	end      float64
	coverage float64
}

func (b *best) offer(cost, start, end, coverage float64) {
	if cost < b.cost {
		*b = best{cost: cost, start: start, end: end, coverage: coverage}
	}
}

func (r *Run) scan(entry *clipcache.Entry, channels []motion.Channel, w window, c config.Constraints, suspend func(Progress) error) (Result, error) {
	e := r.engine
	s := e.Settings
	model := e.Model
	grid := entry.TimeGrid

	baseline := model.AmplitudeOverInterval(entry, channels, w.start, w.end)

	step := w.length * s.DurationStepPercent
	span := w.end - w.start
	totalDurations := int(math.Floor((span-w.minLoop)/step+spanEpsilon)) + 1

	global := best{cost: math.Inf(1)}
	evaluated := 0
	outer := 0

	progress := func(done, innerFrac, dur float64) Progress {
		p := Progress{
			Stage:     StageSearch,
			Fraction:  0.05 + 0.9*(done+innerFrac)/float64(totalDurations),
			Duration:  dur,
			Evaluated: evaluated,
		}
		if !math.IsInf(global.cost, 1) {
			p.BestScore = 1 - clamp01(global.cost)
		}
		return p
	}

	for dur := span; dur >= w.minLoop-spanEpsilon; dur -= step {
		maxStartIdx := min(entry.NearestIndex(w.end-dur), w.endIdx)

		if maxStartIdx >= w.startIdx {
			local := best{cost: math.Inf(1)}
			inner := 0
			count := maxStartIdx - w.startIdx + 1

			for i := w.startIdx; i <= maxStartIdx; i++ {
				inner++
				if inner%s.InnerYieldEvery == 0 {
					if err := suspend(progress(float64(outer), float64(inner)/float64(count), dur)); err != nil {
						return Result{}, err
					}
				}

				startTime := grid[i]
				endIdx := entry.NearestIndex(startTime + dur)
				if endIdx > w.endIdx {
					break
				}
				if endIdx <= i {
					continue
				}
				endTime := grid[endIdx]
				if endTime-startTime < w.minLoop-spanEpsilon {
					continue
				}

				evaluated++
				cost := model.PoseAndVelocityCost(entry, channels, startTime, endTime)
				amplitude := model.AmplitudeOverInterval(entry, channels, startTime, endTime)
				coverage := motion.CoverageRatio(amplitude, baseline)
				if coverage < c.MinMotionCoverage {
					continue
				}
				local.offer(cost, startTime, endTime, coverage)
			}

			global.offer(local.cost, local.start, local.end, local.coverage)
		}

		outer++
		if global.cost <= s.ExcellentCost {
			break
		}
		if outer%s.OuterYieldEvery == 0 {
			if err := suspend(progress(float64(outer), 0, dur)); err != nil {
				return Result{}, err
			}
		}
	}

	if math.IsInf(global.cost, 1) {
		res := failure(w.length, ReasonNoCandidate)
		res.Evaluated = evaluated
		logging.Debug("loop search found no candidate", "clip", r.clip.Name,
			"durations", outer, "evaluated", evaluated, "baseline_amplitude", baseline)
		return res, nil
	}

	res := Result{
		Success:         global.cost <= c.MatchTolerance,
		Start:           global.start,
		End:             global.end,
		StartNormalized: global.start / w.length,
		EndNormalized:   global.end / w.length,
		Score:           1 - clamp01(global.cost),
		Cost:            global.cost,
		Coverage:        global.coverage,
		Length:          w.length,
		Evaluated:       evaluated,
	}
	if !res.Success {
		res.Reason = ReasonAboveTolerance
	}

	logging.Debug("loop search finished", "clip", r.clip.Name, "success", res.Success,
		"start", res.Start, "end", res.End, "cost", res.Cost, "coverage", res.Coverage,
		"durations", outer, "evaluated", evaluated)

	return res, nil
}

// failure is the fallback result spanning the whole clip.
func failure(length float64, reason FailureReason) Result {
	res := Result{End: length, Length: length, Reason: reason}
	if length > 0 {
		res.EndNormalized = 1
	}
	return res
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

func clipName(clip *curve.Clip) string {
	if clip == nil {
		return "<nil>"
	}
	return clip.Name
}
