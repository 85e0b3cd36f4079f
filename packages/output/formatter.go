package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/checkspec/packages/core/runner"
)

// Formatter renders run results.
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that accumulate results and write
// them in one piece at the end of a run.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by New.
var Formats = []string{"console", "json", "junit", "tap"}

// New returns the formatter registered under name.
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch name {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "junit":
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	case "tap":
		return NewTAPFormatter(TAPWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %v)", name, Formats)
	}
}

// failureLines describes why a check failed, one line per cause.
func failureLines(r *runner.CheckResult) []string {
	if r.Passed || r.Skipped {
		return nil
	}
	if r.Error != nil {
		return []string{r.Error.Error()}
	}

	var lines []string
	for _, a := range r.Assertions {
		if !a.Passed {
			lines = append(lines, fmt.Sprintf("%s %s: %s", a.Subject, a.Operator, a.Message))
		}
	}
	if r.Snapshot != nil && !r.Snapshot.Passed {
		lines = append(lines, r.Snapshot.Message)
	}
	return lines
}

// snapshotState summarises the snapshot comparison of a check in one word.
func snapshotState(r *runner.CheckResult) string {
	switch s := r.Snapshot; {
	case s == nil:
		return ""
	case s.IsNew:
		return "created"
	case s.WasUpdated:
		return "updated"
	case s.Passed:
		return "matched"
	default:
		return "mismatch"
	}
}
