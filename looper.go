// Package looper finds seamless loop points in baked animation clips.
//
// A Finder keeps the sampled curves of recently searched clips in a bounded
// cache, scores candidate start and end pairs by pose and velocity mismatch and
// rejects windows that drop too much of the clip's motion.
//
// Basic usage:
//
//	finder, err := looper.New(
//	    looper.WithPreset(looper.PresetStrict),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	clip, err := looper.LoadClip("walk.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := finder.Search(ctx, clip, finder.Constraints())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("loop %.3fs-%.3fs, score %.3f\n", result.Start, result.End, result.Score)
package looper

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/looper/internal/clipcache"
	"github.com/five82/looper/internal/config"
	"github.com/five82/looper/internal/curve"
	"github.com/five82/looper/internal/discovery"
	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/logging"
	"github.com/five82/looper/internal/loop"
	"github.com/five82/looper/internal/motion"
	"github.com/five82/looper/internal/reporter"
	"github.com/five82/looper/internal/store"
	"github.com/five82/looper/internal/worker"
)

// Re-exported types
type (
	Clip        = curve.Clip
	Binding     = curve.Binding
	Provider    = curve.Provider
	Constraints = config.Constraints
	Config      = config.Config
	Preset      = config.Preset
	Result      = loop.Result
	Progress    = loop.Progress
	Run         = loop.Run
	Reporter    = reporter.Reporter
	History     = store.Store
	Record      = store.Record
	CacheStats  = clipcache.Stats
)

const (
	PresetStrict   = config.PresetStrict
	PresetBalanced = config.PresetBalanced
	PresetLoose    = config.PresetLoose
)

// ParsePreset converts a preset string to a Preset value.
// Valid values are "strict", "balanced" and "loose" (case-insensitive).
func ParsePreset(s string) (Preset, error) {
	return config.ParsePreset(s)
}

// ParseWindow parses a normalized window such as "0.25-0.75".
func ParseWindow(s string) (start, end float64, err error) {
	return config.ParseWindow(s)
}

// DefaultConstraints returns the balanced search constraints.
func DefaultConstraints() Constraints {
	return config.DefaultConstraints()
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, coreerrors.NewConfigError(fmt.Sprintf("loading %s", path), err)
	}
	return cfg, nil
}

// LoadClip reads a baked clip from a JSON file.
func LoadClip(path string) (*Clip, error) {
	clip, err := curve.LoadFile(path)
	if err != nil {
		return nil, coreerrors.NewParseError(fmt.Sprintf("loading clip %s", path), err)
	}
	return clip, nil
}

// FindClips finds clip files in a directory.
func FindClips(dir string) ([]string, error) {
	return discovery.FindClipFiles(dir)
}

// OpenHistory opens the search result database at path.
func OpenHistory(path string) (*History, error) {
	return store.Open(path)
}

type options struct {
	cfg      *config.Config
	provider curve.Provider
	kinds    []curve.Kind
	workers  int
	reporter reporter.Reporter
	history  *store.Store
	logger   *logging.Logger
}

// Option configures a Finder.
type Option func(*options)

// WithConfig replaces the whole configuration. Later options still apply on top.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		if cfg != nil {
			c := *cfg
			o.cfg = &c
		}
	}
}

// WithPreset applies a constraint preset.
func WithPreset(p Preset) Option {
	return func(o *options) {
		o.cfg.ApplyPreset(p)
	}
}

// WithConstraints sets the constraints returned by Finder.Constraints.
func WithConstraints(c Constraints) Option {
	return func(o *options) {
		o.cfg.Constraints = c
	}
}

// WithCacheCapacity sets how many clips keep their sampled curves.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		o.cfg.CacheCapacity = n
	}
}

// WithSampleRate sets the time grid density in samples per second.
func WithSampleRate(rate float64) Option {
	return func(o *options) {
		o.cfg.SampleRate = rate
	}
}

// WithProvider replaces the baked curve provider.
func WithProvider(p Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithKinds restricts the searched channels to the given binding kinds.
// The default is animator channels only.
func WithKinds(kinds ...curve.Kind) Option {
	return func(o *options) {
		o.kinds = kinds
	}
}

// WithWeights replaces the default channel weighting.
func WithWeights(rules ...config.WeightRule) Option {
	return func(o *options) {
		o.cfg.Weights = rules
	}
}

// WithSettings replaces the search tunables.
func WithSettings(s config.Search) Option {
	return func(o *options) {
		o.cfg.Search = s
	}
}

// WithLogger sets the logger for Finder events. The default is the global logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWorkers sets how many clips SearchBatch searches at once. Each worker
// owns a separate cache; a custom provider must then be safe for concurrent use.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithReporter receives search events.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithHistory saves every completed search to h. The Finder does not close it.
func WithHistory(h *History) Option {
	return func(o *options) {
		o.history = h
	}
}

// Finder is the main entry point for loop searches.
// A Finder is not safe for concurrent use.
type Finder struct {
	config   *config.Config
	engine   *loop.Engine
	kinds    []curve.Kind
	workers  int
	reporter reporter.Reporter
	history  *store.Store
	logger   *logging.Logger
}

// New creates a Finder with the given options.
func New(opts ...Option) (*Finder, error) {
	o := &options{
		cfg:     config.NewConfig(),
		kinds:   []curve.Kind{curve.KindAnimator},
		workers: 1,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.cfg.Validate(); err != nil {
		return nil, coreerrors.NewConfigError("invalid configuration", err)
	}
	if o.workers < 1 {
		return nil, coreerrors.NewConfigError(fmt.Sprintf("workers must be at least 1, got %d", o.workers), nil)
	}

	cache := clipcache.New(o.provider, o.cfg.CacheCapacity, o.cfg.SampleRate, o.kinds...)
	model := motion.NewModel()
	model.Table = o.cfg.Table()

	rep := o.reporter
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	return &Finder{
		config:   o.cfg,
		engine:   loop.NewEngine(cache, model, o.cfg.Search),
		kinds:    o.kinds,
		workers:  o.workers,
		reporter: rep,
		history:  o.history,
		logger:   o.logger,
	}, nil
}

// fork returns a silent Finder with its own cache for use on another goroutine.
func (f *Finder) fork() *Finder {
	cache := clipcache.New(f.engine.Cache.Provider(), f.engine.Cache.Capacity(), f.config.SampleRate, f.kinds...)
	return &Finder{
		config:   f.config,
		engine:   loop.NewEngine(cache, f.engine.Model, f.engine.Settings),
		kinds:    f.kinds,
		workers:  1,
		reporter: reporter.NullReporter{},
		logger:   f.logger,
	}
}

func (f *Finder) log() *logging.Logger {
	if f.logger != nil {
		return f.logger
	}
	return logging.Global()
}

// Constraints returns the configured constraints.
func (f *Finder) Constraints() Constraints {
	return f.config.Constraints
}

// Start prepares a cooperative search. Range over Run.Steps to drive it; each
// step returns control to the caller. No events are reported and nothing is saved.
func (f *Finder) Start(ctx context.Context, clip *Clip, c Constraints) *Run {
	return f.engine.Start(ctx, clip, c)
}

// Search runs a search to completion, reporting progress and saving the result
// when a history is configured. Unusable clips and unmatched loops are described
// by the Result; errors mean provider failures, cancellation or storage failures.
func (f *Finder) Search(ctx context.Context, clip *Clip, c Constraints) (Result, error) {
	name := ""
	if clip != nil {
		name = clip.Name
	}

	f.reporter.SearchStarted(reporter.SearchStartInfo{
		Clip:        name,
		WindowStart: c.WindowStart,
		WindowEnd:   c.WindowEnd,
		MinWindow:   c.MinWindowFraction,
		MinCoverage: c.MinMotionCoverage,
		Tolerance:   c.MatchTolerance,
		Preset:      f.config.PresetName,
	})

	started := time.Now()
	var stage loop.Stage
	res, err := f.engine.Search(ctx, clip, c, func(p Progress) {
		if p.Stage != stage {
			stage = p.Stage
			if msg := stageMessage(stage); msg != "" {
				f.reporter.StageProgress(reporter.StageProgress{
					Stage:   string(stage),
					Percent: float32(p.Fraction * 100),
					Message: msg,
				})
			}
		}
		f.reporter.SearchProgress(reporter.SearchSnapshot{
			Stage:     string(p.Stage),
			Percent:   float32(p.Fraction * 100),
			Duration:  p.Duration,
			BestScore: p.BestScore,
			Evaluated: p.Evaluated,
		})
	})
	if err != nil {
		return res, err
	}

	if err := f.finish(name, c, res, time.Since(started)); err != nil {
		return res, err
	}
	return res, nil
}

// finish saves, logs and reports a completed search.
func (f *Finder) finish(name string, c Constraints, res Result, elapsed time.Duration) error {
	var recordID string
	if f.history != nil && name != "" {
		id, err := f.history.Save(newRecord(name, c, res))
		if err != nil {
			return err
		}
		recordID = id
	}

	f.log().ForClip(name).Info("loop search finished",
		"success", res.Success,
		"start", res.Start,
		"end", res.End,
		"score", res.Score,
		"reason", string(res.Reason),
		"evaluated", res.Evaluated,
		"elapsed", elapsed)

	f.reporter.SearchComplete(reporter.SearchOutcome{
		Clip:      name,
		Success:   res.Success,
		Start:     res.Start,
		End:       res.End,
		Length:    res.Length,
		Score:     res.Score,
		Cost:      res.Cost,
		Coverage:  res.Coverage,
		Reason:    string(res.Reason),
		Evaluated: res.Evaluated,
		Elapsed:   elapsed,
		RecordID:  recordID,
	})
	if msg := failureWarning(name, c, res); msg != "" {
		f.reporter.Warning(msg)
	}
	return nil
}

func stageMessage(stage loop.Stage) string {
	switch stage {
	case loop.StageSetup:
		return "Resolving search window"
	case loop.StageBindings:
		return "Sampling channel curves"
	case loop.StageSearch:
		return "Scanning loop candidates"
	default:
		return ""
	}
}

// failureWarning describes an unsuccessful search and what to relax.
func failureWarning(name string, c Constraints, res Result) string {
	if res.Success {
		return ""
	}
	if name == "" {
		name = "clip"
	}
	switch res.Reason {
	case loop.ReasonNoBindings:
		return fmt.Sprintf("%s: no animated channels of the searched kinds", name)
	case loop.ReasonClipTooShort:
		return fmt.Sprintf("%s: %.3fs clip is shorter than the minimum loop; lower the minimum window fraction (%.2f)",
			name, res.Length, c.MinWindowFraction)
	case loop.ReasonNoCandidate:
		return fmt.Sprintf("%s: no window keeps %.0f%% of the motion; lower the minimum motion coverage",
			name, c.MinMotionCoverage*100)
	case loop.ReasonAboveTolerance:
		return fmt.Sprintf("%s: closest loop %.3fs-%.3fs costs %.4f, above tolerance %.4f",
			name, res.Start, res.End, res.Cost, c.MatchTolerance)
	default:
		return fmt.Sprintf("%s: %s", name, res.Reason.Describe())
	}
}

// SearchFile loads a clip from path, searches it and drops it from the cache.
func (f *Finder) SearchFile(ctx context.Context, path string, c Constraints) (Result, error) {
	clip, err := LoadClip(path)
	if err != nil {
		return Result{}, err
	}
	defer f.engine.Cache.Invalidate(clip)

	channels := 0
	if bindings, err := f.engine.Cache.EligibleBindings(clip); err == nil {
		channels = len(bindings)
	}
	f.reporter.ClipLoaded(reporter.ClipSummary{
		Name:     clip.Name,
		Path:     path,
		Length:   clip.Length(),
		Tracks:   len(clip.Tracks()),
		Channels: channels,
	})

	return f.Search(ctx, clip, c)
}

// searchFunc searches one file without reporting, for batch workers.
func (f *Finder) searchFunc(c Constraints) worker.SearchFunc {
	return func(ctx context.Context, path string) (string, Result, error) {
		clip, err := LoadClip(path)
		if err != nil {
			return "", Result{}, err
		}
		defer f.engine.Cache.Invalidate(clip)

		res, err := f.engine.Search(ctx, clip, c, nil)
		return clip.Name, res, err
	}
}

// BatchResult contains the results of a batch search in input order.
type BatchResult struct {
	Files           []string
	Results         []Result
	SuccessfulCount int
	FailedFiles     []string

	fileResults []reporter.FileResult
}

func (b *BatchResult) add(path, name string, res Result) {
	b.Files = append(b.Files, path)
	b.Results = append(b.Results, res)
	if res.Success {
		b.SuccessfulCount++
	}
	b.fileResults = append(b.fileResults, reporter.FileResult{Filename: name, Success: res.Success, Score: res.Score})
}

func (b *BatchResult) fail(path, name string) {
	b.FailedFiles = append(b.FailedFiles, path)
	b.fileResults = append(b.fileResults, reporter.FileResult{Filename: name})
}

// SearchBatch searches every clip file. A file that fails to load or search is
// reported and skipped; cancellation stops the batch. With more than one worker
// files are searched in parallel and only completions are reported.
func (f *Finder) SearchBatch(ctx context.Context, paths []string, c Constraints) (*BatchResult, error) {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	f.reporter.BatchStarted(reporter.BatchStartInfo{TotalFiles: len(paths), FileList: names})

	started := time.Now()
	var (
		batch *BatchResult
		err   error
	)
	if f.workers > 1 && len(paths) > 1 {
		batch, err = f.searchParallel(ctx, paths, names, c)
	} else {
		batch, err = f.searchSequential(ctx, paths, names, c)
	}
	if err != nil {
		return batch, err
	}

	f.reporter.BatchComplete(reporter.BatchSummary{
		SuccessfulCount: batch.SuccessfulCount,
		TotalFiles:      len(paths),
		TotalDuration:   time.Since(started),
		FileResults:     batch.fileResults,
	})

	return batch, nil
}

func (f *Finder) searchSequential(ctx context.Context, paths, names []string, c Constraints) (*BatchResult, error) {
	batch := &BatchResult{}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return batch, coreerrors.NewCancelledError(err)
		}
		f.reporter.FileProgress(reporter.FileProgressContext{CurrentFile: i + 1, TotalFiles: len(paths)})

		res, err := f.SearchFile(ctx, path, c)
		if err != nil {
			if coreerrors.IsCancelled(err) {
				return batch, err
			}
			f.reportFailure(path, err)
			batch.fail(path, names[i])
			continue
		}
		batch.add(path, names[i], res)
	}
	return batch, nil
}

func (f *Finder) searchParallel(ctx context.Context, paths, names []string, c Constraints) (*BatchResult, error) {
	slots := make([]*worker.Result, len(paths))
	newSearch := func() worker.SearchFunc {
		return f.fork().searchFunc(c)
	}

	err := worker.Run(ctx, paths, f.workers, newSearch, func(r worker.Result, p worker.Progress) {
		f.reporter.FileProgress(reporter.FileProgressContext{CurrentFile: p.FilesComplete, TotalFiles: p.FilesTotal})
		if r.Err == nil {
			r.Err = f.finish(r.Clip, c, r.Value, r.Elapsed)
		}
		if r.Err != nil && !coreerrors.IsCancelled(r.Err) {
			f.reportFailure(r.Path, r.Err)
		}
		slots[r.Idx] = &r
	})

	batch := &BatchResult{}
	for i, r := range slots {
		switch {
		case r == nil:
			// never started
		case r.Err == nil:
			batch.add(paths[i], names[i], r.Value)
		case coreerrors.IsCancelled(r.Err):
			if err == nil {
				err = r.Err
			}
		default:
			batch.fail(paths[i], names[i])
		}
	}
	return batch, err
}

func (f *Finder) reportFailure(path string, err error) {
	f.log().Warn("clip search failed", "file", path, "error", err)
	f.reporter.Error(reporter.ReporterError{
		Title:   "Search failed",
		Message: err.Error(),
		Context: path,
	})
}

// Invalidate drops one clip's sampled curves. Call it after changing the clip.
func (f *Finder) Invalidate(clip *Clip) bool {
	return f.engine.Cache.Invalidate(clip)
}

// ClearCache drops every cached clip.
func (f *Finder) ClearCache() {
	f.engine.Cache.ClearAll()
}

// CacheStats returns cache hit and eviction counters.
func (f *Finder) CacheStats() CacheStats {
	return f.engine.Cache.Stats()
}

func newRecord(name string, c Constraints, res Result) *store.Record {
	return &store.Record{
		ClipName:          name,
		ClipLength:        res.Length,
		WindowStart:       c.WindowStart,
		WindowEnd:         c.WindowEnd,
		MinWindowFraction: c.MinWindowFraction,
		MinMotionCoverage: c.MinMotionCoverage,
		MatchTolerance:    c.MatchTolerance,
		Success:           res.Success,
		Reason:            string(res.Reason),
		Start:             res.Start,
		End:               res.End,
		Score:             res.Score,
		Cost:              res.Cost,
		Coverage:          res.Coverage,
		Evaluated:         res.Evaluated,
	}
}
