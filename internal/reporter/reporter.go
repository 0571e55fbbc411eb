package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	ClipLoaded(summary ClipSummary)
	StageProgress(update StageProgress)
	SearchStarted(info SearchStartInfo)
	SearchProgress(progress SearchSnapshot)
	SearchComplete(outcome SearchOutcome)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchStarted(info BatchStartInfo)
	FileProgress(context FileProgressContext)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) ClipLoaded(ClipSummary)           {}
func (NullReporter) StageProgress(StageProgress)      {}
func (NullReporter) SearchStarted(SearchStartInfo)    {}
func (NullReporter) SearchProgress(SearchSnapshot)    {}
func (NullReporter) SearchComplete(SearchOutcome)     {}
func (NullReporter) Warning(string)                   {}
func (NullReporter) Error(ReporterError)              {}
func (NullReporter) OperationComplete(string)         {}
func (NullReporter) BatchStarted(BatchStartInfo)      {}
func (NullReporter) FileProgress(FileProgressContext) {}
func (NullReporter) BatchComplete(BatchSummary)       {}
func (NullReporter) Verbose(string)                   {}
