package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/checkspec/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Checks   []JSONCheck `json:"checks"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONCheck represents a single check result
type JSONCheck struct {
	Name         string          `json:"name"`
	File         string          `json:"file"`
	Line         int             `json:"line,omitempty"`
	Passed       bool            `json:"passed"`
	Skipped      bool            `json:"skipped,omitempty"`
	SkipReason   string          `json:"skipReason,omitempty"`
	Duration     float64         `json:"duration"`
	Error        string          `json:"error,omitempty"`
	Assertions   []JSONAssertion `json:"assertions,omitempty"`
	NotEvaluated int             `json:"notEvaluated,omitempty"`
	Snapshot     *JSONSnapshot   `json:"snapshot,omitempty"`
}

// JSONSnapshot represents the snapshot comparison of a check
type JSONSnapshot struct {
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// JSONAssertion represents an assertion result
type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// JSONFormatter formats check results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONCheck
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONCheck, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		check := JSONCheck{
			Name:         r.Name,
			File:         result.File,
			Line:         r.Line,
			Passed:       r.Passed,
			Skipped:      r.Skipped,
			Duration:     float64(r.Duration.Milliseconds()),
			NotEvaluated: r.NotEvaluated,
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			check.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			check.Error = r.Error.Error()
		}

		if len(r.Assertions) > 0 {
			check.Assertions = make([]JSONAssertion, len(r.Assertions))
			for i, a := range r.Assertions {
				check.Assertions[i] = JSONAssertion{
					Subject:  a.Subject,
					Operator: a.Operator,
					Expected: a.Expected,
					Actual:   a.Actual,
					Passed:   a.Passed,
					Message:  a.Message,
				}
				if a.Error != nil {
					check.Assertions[i].Error = a.Error.Error()
				}
			}
		}

		if s := r.Snapshot; s != nil {
			check.Snapshot = &JSONSnapshot{
				Passed:   s.Passed,
				Message:  s.Message,
				Expected: s.Expected,
				Actual:   s.Actual,
			}
		}

		f.results = append(f.results, check)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual check results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, c := range f.results {
		if c.Skipped {
			skipped++
		} else if c.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Checks:   f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
