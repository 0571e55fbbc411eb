package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events for machine consumers.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
	now                func() time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
		now:                time.Now,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return r.now().Unix()
}

func (r *JSONReporter) write(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) ClipLoaded(summary ClipSummary) {
	r.write(map[string]any{
		"type":      "clip_loaded",
		"clip":      summary.Name,
		"path":      summary.Path,
		"length":    summary.Length,
		"tracks":    summary.Tracks,
		"channels":  summary.Channels,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) StageProgress(update StageProgress) {
	event := map[string]any{
		"type":      "stage_progress",
		"stage":     update.Stage,
		"percent":   update.Percent,
		"message":   update.Message,
		"timestamp": r.timestamp(),
	}
	if update.ETA != nil {
		event["eta_seconds"] = int64(update.ETA.Seconds())
	}
	r.write(event)
}

func (r *JSONReporter) SearchStarted(info SearchStartInfo) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]any{
		"type":         "search_started",
		"clip":         info.Clip,
		"window_start": info.WindowStart,
		"window_end":   info.WindowEnd,
		"min_window":   info.MinWindow,
		"min_coverage": info.MinCoverage,
		"tolerance":    info.Tolerance,
		"preset":       info.Preset,
		"timestamp":    r.timestamp(),
	})
}

// SearchProgress emits at most one event per whole percent, plus one every
// five seconds and every update at or above 99%.
func (r *JSONReporter) SearchProgress(progress SearchSnapshot) {
	const progressBucketSize = 1
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := r.now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]any{
		"type":       "search_progress",
		"stage":      progress.Stage,
		"percent":    progress.Percent,
		"duration":   progress.Duration,
		"best_score": progress.BestScore,
		"evaluated":  progress.Evaluated,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) SearchComplete(outcome SearchOutcome) {
	event := map[string]any{
		"type":             "search_complete",
		"clip":             outcome.Clip,
		"success":          outcome.Success,
		"start":            outcome.Start,
		"end":              outcome.End,
		"length":           outcome.Length,
		"score":            outcome.Score,
		"cost":             outcome.Cost,
		"coverage":         outcome.Coverage,
		"evaluated":        outcome.Evaluated,
		"duration_seconds": outcome.Elapsed.Seconds(),
		"timestamp":        r.timestamp(),
	}
	if outcome.Reason != "" {
		event["reason"] = outcome.Reason
	}
	if outcome.RecordID != "" {
		event["record_id"] = outcome.RecordID
	}
	r.write(event)
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]any{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]any{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]any{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]any{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileProgress(context FileProgressContext) {
	r.write(map[string]any{
		"type":         "file_progress",
		"current_file": context.CurrentFile,
		"total_files":  context.TotalFiles,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	results := make([]map[string]any, len(summary.FileResults))
	for i, fr := range summary.FileResults {
		results[i] = map[string]any{
			"file":    fr.Filename,
			"success": fr.Success,
			"score":   fr.Score,
		}
	}

	r.write(map[string]any{
		"type":                   "batch_complete",
		"successful_count":       summary.SuccessfulCount,
		"total_files":            summary.TotalFiles,
		"total_duration_seconds": int64(summary.TotalDuration.Seconds()),
		"file_results":           results,
		"timestamp":              r.timestamp(),
	})
}

// Verbose is a no-op; verbose detail goes to the log file in JSON mode.
func (r *JSONReporter) Verbose(string) {}
