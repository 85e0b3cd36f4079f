package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/checkspec/packages/core/runner"
)

// TAPFormatter writes TAP version 13. The plan needs the total number of
// checks, so points are buffered until Flush.
type TAPFormatter struct {
	writer io.Writer
	points []tapPoint
}

type tapPoint struct {
	ok          bool
	description string
	directive   string
	diagnostic  *tapDiagnostic
}

// tapDiagnostic is the YAML block written under a point.
type tapDiagnostic struct {
	Message      string   `yaml:"message,omitempty"`
	Severity     string   `yaml:"severity,omitempty"`
	File         string   `yaml:"file,omitempty"`
	Line         int      `yaml:"line,omitempty"`
	Failures     []string `yaml:"failures,omitempty"`
	NotEvaluated int      `yaml:"not_evaluated,omitempty"`
	Snapshot     string   `yaml:"snapshot,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		f.points = append(f.points, tapPointFor(result.File, r))
	}
}

func tapPointFor(file string, r *runner.CheckResult) tapPoint {
	p := tapPoint{ok: r.Passed || r.Skipped, description: r.Name}

	switch {
	case r.Skipped:
		p.directive = "SKIP"
		if r.SkipReason != "" {
			p.directive += " " + r.SkipReason
		}
	case r.Error != nil:
		p.diagnostic = &tapDiagnostic{
			Message:  r.Error.Error(),
			Severity: "error",
			File:     file,
			Line:     r.Line,
		}
	case !r.Passed:
		p.diagnostic = &tapDiagnostic{
			Message:      r.FailureMessage(),
			Severity:     "fail",
			File:         file,
			Line:         r.Line,
			Failures:     failureLines(r),
			NotEvaluated: r.NotEvaluated,
			Snapshot:     snapshotState(r),
		}
	case r.Snapshot != nil && (r.Snapshot.IsNew || r.Snapshot.WasUpdated):
		p.diagnostic = &tapDiagnostic{Snapshot: snapshotState(r)}
	}
	return p
}

// FormatError adds a failed point for a file that could not be loaded.
func (f *TAPFormatter) FormatError(err error) {
	f.points = append(f.points, tapPoint{
		description: "load",
		diagnostic:  &tapDiagnostic{Message: err.Error(), Severity: "error"},
	})
}

func (f *TAPFormatter) FormatHeader(version string) {}

func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "TAP version 13\n1..%d\n", len(f.points))

	for i, p := range f.points {
		status := "ok"
		if !p.ok {
			status = "not ok"
		}
		fmt.Fprintf(&buf, "%s %d - %s", status, i+1, tapEscape(p.description))
		if p.directive != "" {
			fmt.Fprintf(&buf, " # %s", tapEscape(p.directive))
		}
		buf.WriteByte('\n')

		if p.diagnostic != nil {
			block, err := yaml.Marshal(p.diagnostic)
			if err != nil {
				return fmt.Errorf("encoding TAP diagnostic: %w", err)
			}
			buf.WriteString("  ---\n")
			for _, line := range strings.SplitAfter(strings.TrimSuffix(string(block), "\n"), "\n") {
				buf.WriteString("  " + line)
			}
			buf.WriteString("\n  ...\n")
		}
	}
	fmt.Fprintf(&buf, "# duration %s\n", totalDuration.Round(time.Millisecond))

	_, err := f.writer.Write(buf.Bytes())
	return err
}

// tapEscape keeps a description from being read as a directive.
func tapEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "#", `\#`)
}
