package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/looper/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	out        io.Writer
	errOut     io.Writer
	progress   *progressbar.ProgressBar
	maxPercent float32
	lastStage  string
	stageMsg   string
	verbose    bool
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
	faint      *color.Color
	success    *color.Color
}

// NewTerminalReporter creates a new terminal reporter writing to stdout and stderr.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return NewTerminalReporterWithWriters(os.Stdout, os.Stderr, verbose)
}

// NewTerminalReporterWithWriters creates a terminal reporter with custom writers.
// The progress bar and errors go to errOut.
func NewTerminalReporterWithWriters(out, errOut io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
		success: color.New(color.FgGreen, color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
	r.lastStage = ""
	r.stageMsg = ""
}

func (r *TerminalReporter) section(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) ClipLoaded(summary ClipSummary) {
	r.section("CLIP")
	r.printLabel(9, "Name:", summary.Name)
	if summary.Path != "" {
		r.printLabel(9, "File:", summary.Path)
	}
	r.printLabel(9, "Length:", util.FormatSeconds(summary.Length))
	r.printLabel(9, "Channels:", fmt.Sprintf("%d of %d tracks", summary.Channels, summary.Tracks))
}

// StageProgress labels the running progress bar with the stage message, or
// prints a stage section when no bar is shown.
func (r *TerminalReporter) StageProgress(update StageProgress) {
	r.mu.Lock()
	if r.progress != nil {
		r.lastStage = update.Stage
		r.stageMsg = update.Message
		r.progress.Describe(update.Message)
		r.mu.Unlock()
		return
	}
	if r.lastStage != update.Stage {
		r.mu.Unlock()
		r.section(strings.ToUpper(update.Stage))
		r.mu.Lock()
		r.lastStage = update.Stage
	}
	r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.magenta.Sprint("›"), update.Message)
}

func (r *TerminalReporter) SearchStarted(info SearchStartInfo) {
	r.finishProgress()

	r.section("SEARCH")
	const w = 13
	r.printLabel(w, "Window:", fmt.Sprintf("%s-%s", util.FormatPercent(info.WindowStart), util.FormatPercent(info.WindowEnd)))
	r.printLabel(w, "Min length:", util.FormatPercent(info.MinWindow)+" of clip")
	r.printLabel(w, "Min coverage:", util.FormatPercent(info.MinCoverage))
	r.printLabel(w, "Tolerance:", fmt.Sprintf("%.3f", info.Tolerance))
	if info.Preset != "" {
		r.printLabel(w, "Preset:", info.Preset)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Searching [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) SearchProgress(progress SearchSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := min(max(progress.Percent, 0), 100)
	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	desc := fmt.Sprintf("%s, %d pairs", progress.Stage, progress.Evaluated)
	if r.stageMsg != "" && r.lastStage == progress.Stage {
		desc = r.stageMsg
	}
	if progress.Duration > 0 {
		desc = fmt.Sprintf("loop %s, best %.3f, %d pairs",
			util.FormatSeconds(progress.Duration), progress.BestScore, progress.Evaluated)
	}
	r.progress.Describe(desc)
}

func (r *TerminalReporter) SearchComplete(outcome SearchOutcome) {
	r.finishProgress()

	r.section("RESULT")
	if outcome.Success {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.success.Sprint("Loop found"))
	} else {
		_, _ = fmt.Fprintf(r.out, "  %s (%s)\n", r.red.Sprint("No loop within tolerance"), outcome.Reason)
	}

	const w = 10
	label := "Loop:"
	if !outcome.Success {
		label = "Closest:"
	}
	r.printLabel(w, label, util.FormatInterval(outcome.Start, outcome.End))
	r.printLabel(w, "Score:", r.bold.Sprintf("%.3f", outcome.Score))
	r.printLabel(w, "Cost:", fmt.Sprintf("%.4f", outcome.Cost))
	r.printLabel(w, "Coverage:", util.FormatPercent(outcome.Coverage))
	r.printLabel(w, "Pairs:", fmt.Sprintf("%d in %s", outcome.Evaluated, outcome.Elapsed.Round(1e6)))
	if outcome.RecordID != "" {
		r.printLabel(w, "Saved as:", r.faint.Sprint(outcome.RecordID))
	}
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.success.Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	r.section("BATCH")
	_, _ = fmt.Fprintf(r.out, "  Searching %d clips\n", info.TotalFiles)
	for i, name := range info.FileList {
		_, _ = fmt.Fprintf(r.out, "  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) FileProgress(context FileProgressContext) {
	_, _ = fmt.Fprintf(r.out, "\nClip %s of %d\n",
		r.bold.Sprint(context.CurrentFile),
		context.TotalFiles)
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	r.section("BATCH SUMMARY")
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.bold.Sprintf("%d of %d looped", summary.SuccessfulCount, summary.TotalFiles))
	_, _ = fmt.Fprintf(r.out, "  Time: %s\n", util.FormatDuration(summary.TotalDuration.Seconds()))

	for _, result := range summary.FileResults {
		status := r.green.Sprint("✓")
		if !result.Success {
			status = r.red.Sprint("✗")
		}
		_, _ = fmt.Fprintf(r.out, "  - %s %s (score %.3f)\n", status, result.Filename, result.Score)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint(message))
}
