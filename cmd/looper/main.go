// Package main provides the CLI entry point for looper.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/looper"
	"github.com/five82/looper/internal/config"
	"github.com/five82/looper/internal/discovery"
	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/logging"
	"github.com/five82/looper/internal/reporter"
	"github.com/five82/looper/internal/store"
	"github.com/five82/looper/internal/util"
)

const (
	appName    = "looper"
	appVersion = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Find seamless loop points in baked animation clips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSearchCmd(), newHistoryCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	}
}

// searchArgs holds the parsed arguments for the search command.
type searchArgs struct {
	inputPath   string
	configPath  string
	preset      string
	window      string
	minWindow   float64
	minCoverage float64
	tolerance   float64
	dbPath      string
	eventsPath  string
	workers     int
	logDir      string
	jsonOutput  bool
	verbose     bool
	noLog       bool
}

func newSearchCmd() *cobra.Command {
	var sa searchArgs

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search clip files for loop points",
		Long: `Search one clip file, or every clip file in a directory, for the start and
end times whose poses and velocities match best while keeping enough of the
clip's motion.

Explicit flags override the preset, which overrides the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sa.inputPath == "" {
				return fmt.Errorf("input path is required (-i/--input)")
			}
			return executeSearch(cmd, sa)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&sa.inputPath, "input", "i", "", "Input clip file or directory containing clip files")
	fs.StringVarP(&sa.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&sa.preset, "preset", "", "Constraint preset (strict, balanced, loose)")
	fs.StringVar(&sa.window, "window", "", `Normalized search window, e.g. "0.25-0.75"`)
	fs.Float64Var(&sa.minWindow, "min-window", config.DefaultMinWindowFraction, "Minimum loop length as a fraction of the clip")
	fs.Float64Var(&sa.minCoverage, "min-coverage", config.DefaultMinMotionCoverage, "Minimum share of the clip's motion the loop must keep")
	fs.Float64Var(&sa.tolerance, "tolerance", config.DefaultMatchTolerance, "Highest pose cost accepted as a seamless loop")
	fs.StringVar(&sa.dbPath, "db", "", "Save results to this sqlite history database")
	fs.StringVar(&sa.eventsPath, "events", "", "Also write NDJSON events to this file")
	fs.IntVar(&sa.workers, "workers", 1, "Number of clips searched in parallel in directory runs")
	fs.StringVarP(&sa.logDir, "log-dir", "l", "", "Log directory (defaults to ./logs)")
	fs.BoolVar(&sa.jsonOutput, "json", false, "Emit NDJSON events instead of terminal output")
	fs.BoolVarP(&sa.verbose, "verbose", "v", false, "Enable verbose output for troubleshooting")
	fs.BoolVar(&sa.noLog, "no-log", false, "Disable log file creation")

	return cmd
}

// buildConfig layers the config file, the preset and explicit flags.
func buildConfig(cmd *cobra.Command, sa searchArgs) (*config.Config, error) {
	cfg := config.NewConfig()
	if sa.configPath != "" {
		loaded, err := config.LoadFile(sa.configPath)
		if err != nil {
			return nil, coreerrors.NewConfigError(fmt.Sprintf("loading %s", sa.configPath), err)
		}
		cfg = loaded
	}

	if sa.preset != "" {
		preset, err := config.ParsePreset(sa.preset)
		if err != nil {
			return nil, err
		}
		cfg.ApplyPreset(preset)
	}

	flags := cmd.Flags()
	if sa.window != "" {
		start, end, err := config.ParseWindow(sa.window)
		if err != nil {
			return nil, err
		}
		cfg.Constraints.WindowStart = start
		cfg.Constraints.WindowEnd = end
	}
	if flags.Changed("min-window") {
		cfg.Constraints.MinWindowFraction = sa.minWindow
	}
	if flags.Changed("min-coverage") {
		cfg.Constraints.MinMotionCoverage = sa.minCoverage
	}
	if flags.Changed("tolerance") {
		cfg.Constraints.MatchTolerance = sa.tolerance
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func executeSearch(cmd *cobra.Command, sa searchArgs) error {
	inputPath, err := filepath.Abs(sa.inputPath)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}

	cfg, err := buildConfig(cmd, sa)
	if err != nil {
		return err
	}

	logDir := sa.logDir
	if logDir == "" {
		logDir = "logs"
	}
	logger, err := logging.Setup(logDir, sa.verbose, sa.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	var discoveryLogger discovery.DiscoveryLogger
	if logger != nil {
		defer func() { _ = logger.Close() }()
		logging.SetGlobal(logger)
		discoveryLogger = logger
	} else {
		logging.SetGlobal(logging.New(logging.Config{Enabled: false}))
	}

	files, err := discovery.ResolveInputs(inputPath, discoveryLogger)
	if err != nil {
		return err
	}

	var rep reporter.Reporter
	if sa.jsonOutput {
		rep = reporter.NewJSONReporterWithWriter(cmd.OutOrStdout())
	} else {
		rep = reporter.NewTerminalReporterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), sa.verbose)
	}
	if sa.eventsPath != "" {
		events, err := createEventsFile(sa.eventsPath)
		if err != nil {
			return err
		}
		defer func() { _ = events.Close() }()
		rep = reporter.NewCompositeReporter(rep, reporter.NewJSONReporterWithWriter(events))
	}
	if path := logger.FilePath(); path != "" {
		rep.Verbose(fmt.Sprintf("Logging to %s", path))
	}

	opts := []looper.Option{looper.WithConfig(cfg), looper.WithReporter(rep), looper.WithWorkers(sa.workers)}
	if sa.dbPath != "" {
		history, err := store.Open(sa.dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = history.Close() }()
		opts = append(opts, looper.WithHistory(history))
	}

	finder, err := looper.New(opts...)
	if err != nil {
		return err
	}

	logging.Info("search configuration",
		"files", len(files),
		"workers", sa.workers,
		"preset", cfg.PresetName,
		"window_start", cfg.Constraints.WindowStart,
		"window_end", cfg.Constraints.WindowEnd,
		"min_window", cfg.Constraints.MinWindowFraction,
		"min_coverage", cfg.Constraints.MinMotionCoverage,
		"tolerance", cfg.Constraints.MatchTolerance)

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(files) == 1 {
		_, err = finder.SearchFile(ctx, files[0], cfg.Constraints)
	} else {
		_, err = finder.SearchBatch(ctx, files, cfg.Constraints)
	}
	if err != nil {
		title := "Search failed"
		if coreerrors.IsCancelled(err) {
			title = "Search cancelled"
		}
		rep.Error(reporter.ReporterError{Title: title, Message: err.Error(), Context: inputPath})
		return err
	}

	rep.OperationComplete(fmt.Sprintf("Searched %d clip(s)", len(files)))
	return nil
}

func createEventsFile(path string) (*os.File, error) {
	if err := util.EnsureParentDirectory(path); err != nil {
		return nil, coreerrors.NewIOError(fmt.Sprintf("creating directory for %s", path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, coreerrors.NewIOError(fmt.Sprintf("creating events file %s", path), err)
	}
	return f, nil
}

// historyArgs holds the parsed arguments for the history command.
type historyArgs struct {
	dbPath     string
	limit      int
	jsonOutput bool
}

func newHistoryCmd() *cobra.Command {
	var ha historyArgs

	cmd := &cobra.Command{
		Use:   "history <clip>",
		Short: "Show saved search results for a clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeHistory(cmd, args[0], ha)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&ha.dbPath, "db", store.DefaultDBFile, "sqlite history database")
	fs.IntVar(&ha.limit, "limit", store.DefaultHistoryLimit, "Maximum number of records")
	fs.BoolVar(&ha.jsonOutput, "json", false, "Print records as JSON")

	return cmd
}

func executeHistory(cmd *cobra.Command, clip string, ha historyArgs) error {
	if !util.FileExists(ha.dbPath) {
		return coreerrors.NewPathError(fmt.Sprintf("history database does not exist: %s", ha.dbPath))
	}

	history, err := store.Open(ha.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	records, err := history.History(clip, ha.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ha.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No results for %s\n", clip)
		return nil
	}
	for _, r := range records {
		status := "ok"
		if !r.Success {
			status = r.Reason
		}
		fmt.Fprintf(out, "%s  %-16s %s  score %.3f  coverage %s  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			status,
			util.FormatInterval(r.Start, r.End),
			r.Score,
			util.FormatPercent(r.Coverage),
			r.ID)
	}
	return nil
}
