// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// ClipSummary describes a loaded clip before searching.
type ClipSummary struct {
	Name     string
	Path     string
	Length   float64
	Tracks   int
	Channels int
}

// SearchStartInfo contains the constraints a search runs with.
type SearchStartInfo struct {
	Clip        string
	WindowStart float64
	WindowEnd   float64
	MinWindow   float64
	MinCoverage float64
	Tolerance   float64
	Preset      string
}

// SearchSnapshot contains search progress information.
type SearchSnapshot struct {
	Stage     string
	Percent   float32
	Duration  float64
	BestScore float64
	Evaluated int
}

// SearchOutcome contains the final search result.
type SearchOutcome struct {
	Clip      string
	Success   bool
	Start     float64
	End       float64
	Length    float64
	Score     float64
	Cost      float64
	Coverage  float64
	Reason    string
	Evaluated int
	Elapsed   time.Duration
	RecordID  string
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
}

// FileProgressContext contains current file index within a batch.
type FileProgressContext struct {
	CurrentFile int
	TotalFiles  int
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	SuccessfulCount int
	TotalFiles      int
	TotalDuration   time.Duration
	FileResults     []FileResult
}

// FileResult contains per-file search result.
type FileResult struct {
	Filename string
	Success  bool
	Score    float64
}

// StageProgress represents a generic stage update.
type StageProgress struct {
	Stage   string
	Percent float32
	Message string
	ETA     *time.Duration
}
