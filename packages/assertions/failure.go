package assertions

import (
	"errors"
	"fmt"
)

// ErrAssertionFailed is matched by every *AssertionFailure via errors.Is.
var ErrAssertionFailed = errors.New("assertion failed")

// Kind identifies a check kind.
type Kind int

const (
	KindContainsAll Kind = iota
	KindStartsWith
	KindEndsWith
	KindEquals
	KindMatches
)

// String returns the operator spelling used in suite files.
func (k Kind) String() string {
	switch k {
	case KindContainsAll:
		return "contains"
	case KindStartsWith:
		return "startsWith"
	case KindEndsWith:
		return "endsWith"
	case KindEquals:
		return "equals"
	case KindMatches:
		return "matches"
	default:
		return "unknown"
	}
}

// expectedValuesDescription is the Expected text of every contains-all report.
const expectedValuesDescription = "expected value(s)"

// FailureReport describes why a check failed.
//
// Missing is only ever set for KindContainsAll and lists the values that were
// not found, in the order they were requested. Single predicate kinds leave it
// nil and carry their parameter in Expected.
type FailureReport struct {
	Kind     Kind
	Actual   string
	Expected string
	Missing  []string
}

// Message renders the report using the template of its kind.
func (r *FailureReport) Message() string {
	switch r.Kind {
	case KindContainsAll:
		return fmt.Sprintf(`The string ["%s"] does not contain the %s: [%s].`, r.Actual, r.Expected, Enumerate(r.Missing))
	case KindStartsWith:
		return fmt.Sprintf(`The string ["%s"] does not start with ["%s"].`, r.Actual, r.Expected)
	case KindEndsWith:
		return fmt.Sprintf(`The string ["%s"] does not end with ["%s"].`, r.Actual, r.Expected)
	case KindEquals:
		return fmt.Sprintf(`The string ["%s"] is not equal to ["%s"].`, r.Actual, r.Expected)
	case KindMatches:
		return fmt.Sprintf(`The string ["%s"] does not match the pattern ["%s"].`, r.Actual, r.Expected)
	default:
		return fmt.Sprintf(`The string ["%s"] failed an unknown check against ["%s"].`, r.Actual, r.Expected)
	}
}

// AssertionFailure is the error raised when a check does not hold.
type AssertionFailure struct {
	Report *FailureReport
}

func (e *AssertionFailure) Error() string {
	return e.Report.Message()
}

func (e *AssertionFailure) Is(target error) bool {
	return target == ErrAssertionFailed
}

// AsFailure returns the *AssertionFailure wrapped in err, if any.
func AsFailure(err error) (*AssertionFailure, bool) {
	var failure *AssertionFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

func fail(report *FailureReport) error {
	return &AssertionFailure{Report: report}
}
