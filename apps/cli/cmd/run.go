package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/checkspec/packages/core/config"
	"github.com/abdul-hamid-achik/checkspec/packages/core/parser"
	"github.com/abdul-hamid-achik/checkspec/packages/core/runner"
	"github.com/abdul-hamid-achik/checkspec/packages/history"
	"github.com/abdul-hamid-achik/checkspec/packages/log"
	"github.com/abdul-hamid-achik/checkspec/packages/output"
	"github.com/abdul-hamid-achik/checkspec/packages/snapshot"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Evaluate the checks of suite files",
	Long: `Evaluate the checks defined in .check.yaml, .check.yml or .checkspec files.

Examples:
  checkspec run greetings.check.yaml
  checkspec run ./checks/ --tags smoke
  checkspec run ./checks/ --name "greeting*" --bail
  checkspec run ./checks/ --parallel --concurrency 8 -o junit --output-file report.xml
  checkspec run ./checks/ --update-snapshots
  checkspec run ./checks/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var suiteExtensions = []string{".check.yaml", ".check.yml", ".checkspec"}

var (
	configFlag      string
	envFileFlag     string
	nameFlag        string
	tagsFlag        string
	verboseFlag     int // 0=off, 1=-v, 2=-vv
	logLevelFlag    string
	bailFlag        bool
	noColorFlag     bool
	dryRunFlag      bool
	outputFlag      string
	outputFileFlag  string
	parallelFlag    bool
	concurrencyFlag int
	watchFlag       bool
	historyFlag     string

	// Snapshot testing flags
	updateSnapshotsFlag bool
)

func init() {
	// Core flags
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("CHECKSPEC_ENV_FILE", ""), "Path to .env file for variable interpolation (env: CHECKSPEC_ENV_FILE)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("CHECKSPEC_CONFIG", ""), "Path to config file (env: CHECKSPEC_CONFIG)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only checks matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("CHECKSPEC_TAGS", ""), "Run only checks with specified tags (comma-separated) (env: CHECKSPEC_TAGS)")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v shows sources, -vv also enables debug logs)")
	runCmd.Flags().StringVar(&logLevelFlag, "log-level", getEnvString("CHECKSPEC_LOG_LEVEL", config.DefaultLogLevel), "Log level: silent, error, info, debug (env: CHECKSPEC_LOG_LEVEL)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("CHECKSPEC_NO_COLOR", false), "Disable colored output (env: CHECKSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("CHECKSPEC_OUTPUT", "console"), "Output format: console, json, junit, tap (env: CHECKSPEC_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("CHECKSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: CHECKSPEC_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("CHECKSPEC_HISTORY", ""), "Record the run in this SQLite database (env: CHECKSPEC_HISTORY)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("CHECKSPEC_BAIL", false), "Stop on first failure (env: CHECKSPEC_BAIL)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would run without evaluating")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("CHECKSPEC_PARALLEL", false), "Evaluate the checks of a file in parallel (env: CHECKSPEC_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("CHECKSPEC_CONCURRENCY", config.DefaultConcurrency), "Number of concurrent checks when running in parallel (env: CHECKSPEC_CONCURRENCY)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run checks")

	// Snapshot testing flags
	runCmd.Flags().BoolVar(&updateSnapshotsFlag, "update-snapshots", false, "Update snapshot files instead of comparing")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// flagOverrides collects the settings given on the command line or through
// CHECKSPEC_* variables; they take precedence over the config file.
func flagOverrides(cmd *cobra.Command) *config.Config {
	set := func(name, envKey string) bool {
		return cmd.Flags().Changed(name) || os.Getenv(envKey) != ""
	}

	o := &config.Config{}
	if set("env-file", "CHECKSPEC_ENV_FILE") {
		o.EnvFile = envFileFlag
	}
	if set("output", "CHECKSPEC_OUTPUT") {
		o.Reporters = []string{strings.ToLower(outputFlag)}
	}
	if set("output-file", "CHECKSPEC_OUTPUT_FILE") {
		o.OutputFile = outputFileFlag
	}
	if set("history", "CHECKSPEC_HISTORY") {
		o.History = historyFlag
	}
	if set("log-level", "CHECKSPEC_LOG_LEVEL") {
		o.LogLevel = logLevelFlag
	}
	if set("concurrency", "CHECKSPEC_CONCURRENCY") {
		o.Concurrency = concurrencyFlag
	}
	if set("parallel", "CHECKSPEC_PARALLEL") {
		o.Parallel = config.BoolPtr(parallelFlag)
	}
	if set("bail", "CHECKSPEC_BAIL") {
		o.Bail = config.BoolPtr(bailFlag)
	}
	if set("no-color", "CHECKSPEC_NO_COLOR") {
		o.NoColor = config.BoolPtr(noColorFlag)
	}
	if verboseFlag > 0 {
		o.Verbose = config.BoolPtr(true)
	}
	return o
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func runCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	cfg := fileConfig.Merge(flagOverrides(cmd))

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err))
	}
	if verboseFlag >= 2 {
		level = log.Debug
	}
	logger := log.New(log.WithWriter(cmd.ErrOrStderr()), log.WithLevel(level))

	files, err := collectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no suite files found (%s)", strings.Join(suiteExtensions, ", ")))
	}

	if dryRunFlag {
		return dryRun(cmd, files)
	}

	out := cmd.OutOrStdout()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return withExitCode(ExitConfigError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	reporter := "console"
	if len(cfg.Reporters) > 0 {
		reporter = cfg.Reporters[0]
	}
	newFormatter := func() (output.Formatter, error) {
		return output.New(reporter, out, cfg.GetVerbose(), cfg.GetNoColor())
	}
	formatter, err := newFormatter()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	var store *history.Store
	if cfg.History != "" {
		store, err = history.Open(cfg.History)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		defer store.Close()
	}

	snapshots := snapshot.NewManager(updateSnapshotsFlag)
	r := runner.NewRunner(&runner.Config{
		Variables:       cfg.Variables,
		EnvFile:         cfg.EnvFile,
		NameFilter:      nameFlag,
		TagsFilter:      splitTags(tagsFlag),
		Bail:            cfg.GetBail(),
		Parallel:        cfg.GetParallel(),
		Concurrency:     cfg.Concurrency,
		UpdateSnapshots: updateSnapshotsFlag,
	}, runner.WithLogger(logger), runner.WithSnapshots(snapshots))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := &runSession{
		runner:    r,
		snapshots: snapshots,
		files:     files,
		envFile:   cfg.EnvFile,
		bail:      cfg.GetBail(),
		store:     store,
		logger:    logger,
		fixtures:  make(map[string]bool),
	}

	formatter.FormatHeader(version)
	summary, runErr := session.run(ctx, formatter)

	if !watchFlag {
		if runErr != nil {
			return runErr
		}
		if summary.Failed > 0 {
			return withExitCode(ExitCheckFailure, fmt.Errorf("%d check(s) failed", summary.Failed))
		}
		return nil
	}

	return session.watch(ctx, cmd, args, newFormatter)
}

// runSession runs a fixed set of suite files, once or on every change.
type runSession struct {
	runner    *runner.Runner
	snapshots *snapshot.Manager
	files     []string
	envFile   string
	bail      bool
	store     *history.Store
	logger    *log.Logger

	// fixtures holds the absolute paths of the file sources read so far.
	fixtures map[string]bool
}

// run evaluates every file and writes the results to formatter. The returned
// error is a parse failure of at least one file.
func (s *runSession) run(ctx context.Context, formatter output.Formatter) (runner.Summary, error) {
	startTime := time.Now()
	var (
		results  []*runner.RunResult
		firstErr error
	)

	for _, file := range s.files {
		result, err := s.runner.RunFileContext(ctx, file)
		if err != nil {
			formatter.FormatError(err)
			if firstErr == nil {
				firstErr = err
			}
			if s.bail {
				break
			}
			continue
		}

		formatter.FormatResult(result)
		results = append(results, result)
		s.trackFixtures(result)

		if s.bail && result.Failed > 0 {
			break
		}
	}

	summary := runner.Summarize(results)
	summary.Duration = time.Since(startTime)

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(summary.Duration); err != nil {
			return summary, withExitCode(ExitConfigError, fmt.Errorf("error writing output: %w", err))
		}
	}

	s.record(ctx, startTime, summary)

	if firstErr != nil {
		var pe *parser.ParseError
		if errors.As(firstErr, &pe) {
			return summary, withExitCode(ExitParseError, firstErr)
		}
		return summary, withExitCode(ExitConfigError, firstErr)
	}
	return summary, nil
}

func (s *runSession) trackFixtures(result *runner.RunResult) {
	for _, c := range result.Results {
		if c.SourceFile == "" {
			continue
		}
		if abs, err := filepath.Abs(c.SourceFile); err == nil {
			s.fixtures[abs] = true
		}
	}
}

// triggersRerun reports whether a change to path affects the session: a
// suite file, a file source read by a check or the env file.
func (s *runSession) triggersRerun(path string) bool {
	if isSuiteFile(path) {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if s.fixtures[abs] {
		return true
	}
	if s.envFile != "" {
		if envPath, err := filepath.Abs(s.envFile); err == nil && envPath == abs {
			return true
		}
	}
	return false
}

// watchDirs returns the directories holding the suites, the file sources
// and the env file.
func (s *runSession) watchDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(path string) {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, file := range s.files {
		add(file)
	}
	for path := range s.fixtures {
		add(path)
	}
	if s.envFile != "" {
		add(s.envFile)
	}
	return dirs
}

func (s *runSession) record(ctx context.Context, startTime time.Time, summary runner.Summary) {
	if s.store == nil {
		return
	}
	run, err := s.store.Record(ctx, history.Run{
		StartedAt: startTime,
		Duration:  summary.Duration,
		Files:     summary.Files,
		Passed:    summary.Passed,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
	})
	if err != nil {
		s.logger.Error("recording run history", err)
		return
	}
	s.logger.Info("run recorded", log.Fields{"id": run.ID.String()})
}

// watch re-runs the suites whenever one of them changes, until ctx is done.
func (s *runSession) watch(ctx context.Context, cmd *cobra.Command, args []string, newFormatter func() (output.Formatter, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	addDirs := func() {
		for _, dir := range s.watchDirs() {
			if watchedDirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				s.logger.Error("watching directory", fmt.Errorf("%s: %w", dir, err))
			}
			watchedDirs[dir] = true
		}
	}
	addDirs()

	// Also watch the original args if they're directories
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && info.Name() == "__snapshots__" {
					return filepath.SkipDir
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	rerun := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && s.triggersRerun(event.Name) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				name := event.Name
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					select {
					case rerun <- name:
					default:
					}
				})
			}

		case name := <-rerun:
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running checks...\n\n", name)

			// fresh formatter: json and junit accumulate state
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			// snapshot files may have been edited or removed since the last run
			s.snapshots.Reset()
			if _, err := s.run(ctx, formatter); err != nil {
				s.logger.Error("re-running checks", err)
			}
			addDirs()

			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", err)
		}
	}
}

func dryRun(cmd *cobra.Command, files []string) error {
	var firstErr error
	for _, file := range files {
		suite, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Would run: %s (%d checks)\n", file, len(suite.Checks))
	}
	if firstErr != nil {
		return withExitCode(ExitParseError, firstErr)
	}
	return nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isSuiteFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isSuiteFile(arg) {
			files = append(files, arg)
		}
	}

	return files, nil
}

func isSuiteFile(path string) bool {
	for _, ext := range suiteExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
