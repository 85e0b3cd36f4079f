package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdul-hamid-achik/checkspec/packages/assertions"
	"github.com/abdul-hamid-achik/checkspec/packages/core/env"
	"github.com/abdul-hamid-achik/checkspec/packages/core/parser"
	"github.com/abdul-hamid-achik/checkspec/packages/log"
	"github.com/abdul-hamid-achik/checkspec/packages/snapshot"
)

const (
	// DefaultConcurrency is the default number of concurrent checks in parallel mode
	DefaultConcurrency = 5

	skipFiltered = "filtered out"
	skipBail     = "bail: an earlier check failed"
)

var errBail = errors.New("bail")

type Runner struct {
	config    *Config
	logger    *log.Logger
	snapshots *snapshot.Manager
}

type Config struct {
	Variables       map[string]string
	EnvFile         string
	NameFilter      string
	TagsFilter      []string
	Bail            bool
	Parallel        bool
	Concurrency     int
	UpdateSnapshots bool
}

type Option func(*Runner)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithSnapshots shares a snapshot manager between runners.
func WithSnapshots(m *snapshot.Manager) Option {
	return func(r *Runner) {
		r.snapshots = m
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runner{
		config: cfg,
		logger: log.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.snapshots == nil {
		r.snapshots = snapshot.NewManager(cfg.UpdateSnapshots)
	}
	return r
}

type RunResult struct {
	File     string
	Suite    string
	Results  []*CheckResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// Succeeded reports whether no check of the file failed.
func (r *RunResult) Succeeded() bool {
	return r.Failed == 0
}

// CheckResult is the outcome of one check. NotEvaluated counts the
// expectations after the first failing one.
type CheckResult struct {
	Name         string
	Description  string
	Line         int
	Passed       bool
	Skipped      bool
	SkipReason   string
	Duration     time.Duration
	Source       string
	SourceFile   string
	Assertions   []*assertions.Result
	NotEvaluated int
	Snapshot     *snapshot.Result
	Error        error
}

// FailureMessage returns the text explaining why the check failed, or "" if
// it did not.
func (c *CheckResult) FailureMessage() string {
	if c.Passed || c.Skipped {
		return ""
	}
	if c.Error != nil {
		return c.Error.Error()
	}
	if c.Snapshot != nil && !c.Snapshot.Passed {
		return c.Snapshot.Message
	}
	if msg := c.outcome(); msg != "" {
		return msg
	}
	return "check failed"
}

// outcome is the rendered message of the first failing expectation.
func (c *CheckResult) outcome() string {
	for _, a := range c.Assertions {
		if !a.Passed {
			return a.Message
		}
	}
	return ""
}

func (r *Runner) RunFile(path string) (*RunResult, error) {
	return r.RunFileContext(context.Background(), path)
}

// RunFileContext runs every check of the suite at path. Checks that have not
// started when ctx is cancelled are reported as skipped.
func (r *Runner) RunFileContext(ctx context.Context, path string) (*RunResult, error) {
	suite, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	resolver, err := r.newResolver(suite)
	if err != nil {
		return nil, err
	}

	return r.runChecks(ctx, suite, resolver), nil
}

func (r *Runner) newResolver(suite *parser.Suite) (*env.Resolver, error) {
	logger := r.logger.With(log.Fields{"file": suite.Path})

	var dotenv map[string]string
	if r.config.EnvFile != "" {
		vars, err := env.LoadDotEnv(r.config.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		dotenv = vars
	}

	resolver := env.NewResolver()
	resolver.SetWarnFunc(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), nil)
	})
	resolver.SetVariables(env.MergeVariables(
		env.LoadSystemEnv(env.SystemPrefix),
		env.StringMap(dotenv),
		env.StringMap(r.config.Variables),
	))

	// suite variables may refer to the ones declared before them
	for _, v := range suite.Variables {
		resolver.SetVariable(v.Name, resolver.Resolve(v.Value))
	}
	return resolver, nil
}

func (r *Runner) runChecks(ctx context.Context, suite *parser.Suite, resolver *env.Resolver) *RunResult {
	start := time.Now()
	logger := r.logger.With(log.Fields{"file": suite.Path})
	logger.Info("running suite", log.Fields{"checks": len(suite.Checks)})

	result := &RunResult{
		File:    suite.Path,
		Suite:   suite.Name,
		Results: make([]*CheckResult, len(suite.Checks)),
	}
	baseDir := filepath.Dir(suite.Path)

	hasOnly := false
	for _, c := range suite.Checks {
		if c.Only {
			hasOnly = true
			break
		}
	}

	// Filter checks first; runnable keeps the index of each selected check
	var runnable []int
	for i, c := range suite.Checks {
		switch {
		case !r.shouldRun(c, hasOnly):
			result.Results[i] = skipped(c, skipFiltered)
		case c.Skip != "":
			result.Results[i] = skipped(c, c.Skip)
		default:
			runnable = append(runnable, i)
		}
	}

	if r.config.Parallel {
		r.runParallel(ctx, suite, runnable, result.Results, baseDir, resolver)
	} else {
		r.runSequential(ctx, suite, runnable, result.Results, baseDir, resolver)
	}

	for _, c := range result.Results {
		switch {
		case c.Skipped:
			result.Skipped++
		case c.Passed:
			result.Passed++
		default:
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	logger.Info("suite finished", log.Fields{
		"passed":   result.Passed,
		"failed":   result.Failed,
		"skipped":  result.Skipped,
		"duration": result.Duration.String(),
	})
	return result
}

func (r *Runner) runSequential(ctx context.Context, suite *parser.Suite, runnable []int, results []*CheckResult, baseDir string, resolver *env.Resolver) {
	stopped := ""
	for _, i := range runnable {
		check := suite.Checks[i]
		if stopped == "" && ctx.Err() != nil {
			stopped = ctx.Err().Error()
		}
		if stopped != "" {
			results[i] = skipped(check, stopped)
			continue
		}

		results[i] = r.runCheck(check, suite.Path, baseDir, resolver)
		if !results[i].Passed && r.config.Bail {
			stopped = skipBail
		}
	}
}

func (r *Runner) runParallel(ctx context.Context, suite *parser.Suite, runnable []int, results []*CheckResult, baseDir string, resolver *env.Resolver) {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, i := range runnable {
		check := suite.Checks[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				reason := err.Error()
				if errors.Is(context.Cause(gctx), errBail) {
					reason = skipBail
				}
				results[i] = skipped(check, reason)
				return nil
			}

			results[i] = r.runCheck(check, suite.Path, baseDir, resolver)
			if !results[i].Passed && r.config.Bail {
				return errBail
			}
			return nil
		})
	}

	// the only error ever returned is errBail, already reflected in results
	_ = g.Wait()
}

func (r *Runner) runCheck(check *parser.Check, suitePath, baseDir string, resolver *env.Resolver) *CheckResult {
	result := &CheckResult{
		Name:        check.Name,
		Description: check.Description,
		Line:        check.Line,
	}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		r.logger.Debug("check finished", log.Fields{
			"file":     suitePath,
			"check":    check.Name,
			"passed":   result.Passed,
			"duration": result.Duration.String(),
		})
	}()

	source, file, err := r.source(check, baseDir, resolver)
	result.SourceFile = file
	if err != nil {
		result.Error = err
		r.logger.Error("reading check source", err)
		return result
	}
	result.Source = source

	expectations := resolveAssertions(check.Assertions, resolver)
	result.Assertions = assertions.EvaluateAll(source, expectations)
	result.NotEvaluated = len(expectations) - len(result.Assertions)
	result.Passed = true
	for _, a := range result.Assertions {
		if !a.Passed {
			result.Passed = false
			break
		}
	}

	if check.Snapshot {
		result.Snapshot = r.snapshots.Compare(suitePath, check.Name, result.outcome())
		result.Passed = result.Snapshot.Passed
	}

	return result
}

// source returns the text a check is evaluated against and, for file
// sources, the path it was read from.
func (r *Runner) source(check *parser.Check, baseDir string, resolver *env.Resolver) (string, string, error) {
	if !check.HasFile() {
		return resolver.Resolve(check.Value), "", nil
	}

	path := resolver.Resolve(check.File)
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", path, fmt.Errorf("reading source: %w", err)
	}
	return string(data), path, nil
}

// resolveAssertions returns copies of the assertions with their expected
// values resolved, leaving the parsed suite untouched.
func resolveAssertions(in []*parser.Assertion, resolver *env.Resolver) []*parser.Assertion {
	out := make([]*parser.Assertion, len(in))
	for i, a := range in {
		resolved := *a
		switch v := a.Expected.(type) {
		case []string:
			resolved.Expected = resolver.ResolveAll(v)
		case string:
			resolved.Expected = resolver.Resolve(v)
		}
		out[i] = &resolved
	}
	return out
}

func skipped(check *parser.Check, reason string) *CheckResult {
	return &CheckResult{
		Name:        check.Name,
		Description: check.Description,
		Line:        check.Line,
		Skipped:     true,
		SkipReason:  reason,
	}
}

func (r *Runner) shouldRun(check *parser.Check, hasOnly bool) bool {
	if hasOnly && !check.Only {
		return false
	}

	if r.config.NameFilter != "" && !matchesPattern(check.Name, r.config.NameFilter) {
		return false
	}

	if len(r.config.TagsFilter) > 0 && !hasAnyTag(check.Tags, r.config.TagsFilter) {
		return false
	}

	return true
}

// matchesPattern matches a check name against a filter. A filter with a
// leading or trailing * is a suffix or prefix match; anything else matches
// as a substring.
func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	leading := strings.HasPrefix(pattern, "*")
	trailing := len(pattern) > 1 && strings.HasSuffix(pattern, "*")
	core := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")

	switch {
	case leading && !trailing:
		return strings.HasSuffix(name, core)
	case trailing && !leading:
		return strings.HasPrefix(name, core)
	default:
		return strings.Contains(name, core)
	}
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		for _, tag := range tags {
			if tag == filter {
				return true
			}
		}
	}
	return false
}

// Summary aggregates the results of several files.
type Summary struct {
	Files    int
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
}

func Summarize(results []*RunResult) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		s.Passed += r.Passed
		s.Failed += r.Failed
		s.Skipped += r.Skipped
		s.Duration += r.Duration
	}
	return s
}
