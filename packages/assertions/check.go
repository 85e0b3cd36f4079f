package assertions

import (
	"fmt"
	"regexp"
	"strings"
)

// CheckResult is the outcome of evaluating one Check. A nil Report means the
// check passed.
type CheckResult struct {
	Report *FailureReport
}

// Passed reports whether the check held.
func (r CheckResult) Passed() bool {
	return r.Report == nil
}

// Err returns nil on success, or an *AssertionFailure carrying the report.
func (r CheckResult) Err() error {
	if r.Report == nil {
		return nil
	}
	return fail(r.Report)
}

var pass = CheckResult{}

// Check is a single assertion kind: a predicate over the actual string that
// builds a complete FailureReport when it does not hold. Implementations hold
// only their expected parameters and are safe for concurrent use.
type Check interface {
	Kind() Kind
	Evaluate(actual string) CheckResult
}

type containsAllCheck struct {
	values []string
}

// ContainsAllCheck returns a Check that every value occurs in the actual
// string, in any order and at any position.
func ContainsAllCheck(values ...string) Check {
	return containsAllCheck{values: append([]string(nil), values...)}
}

func (c containsAllCheck) Kind() Kind { return KindContainsAll }

func (c containsAllCheck) Evaluate(actual string) CheckResult {
	var notFound []string
	for _, v := range c.values {
		if !strings.Contains(actual, v) {
			notFound = append(notFound, v)
		}
	}
	if len(notFound) == 0 {
		return pass
	}
	return CheckResult{Report: &FailureReport{
		Kind:     KindContainsAll,
		Actual:   actual,
		Expected: expectedValuesDescription,
		Missing:  notFound,
	}}
}

// predicateCheck covers the kinds decided by a single comparison against one
// expected parameter.
type predicateCheck struct {
	kind     Kind
	expected string
	holds    func(actual, expected string) bool
}

func (c predicateCheck) Kind() Kind { return c.kind }

func (c predicateCheck) Evaluate(actual string) CheckResult {
	if c.holds(actual, c.expected) {
		return pass
	}
	return CheckResult{Report: &FailureReport{
		Kind:     c.kind,
		Actual:   actual,
		Expected: c.expected,
	}}
}

// StartsWithCheck returns a case-sensitive, byte exact prefix Check.
func StartsWithCheck(prefix string) Check {
	return predicateCheck{kind: KindStartsWith, expected: prefix, holds: strings.HasPrefix}
}

// EndsWithCheck returns a case-sensitive, byte exact suffix Check.
func EndsWithCheck(suffix string) Check {
	return predicateCheck{kind: KindEndsWith, expected: suffix, holds: strings.HasSuffix}
}

// EqualsCheck returns a Check for exact string equality.
func EqualsCheck(expected string) Check {
	return predicateCheck{kind: KindEquals, expected: expected, holds: func(a, e string) bool {
		return a == e
	}}
}

// MatchesCheck returns a Check that the actual string matches the RE2
// pattern anywhere. Surrounding slashes (/re/) are stripped.
func MatchesCheck(pattern string) (Check, error) {
	pattern = strings.TrimPrefix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	return predicateCheck{kind: KindMatches, expected: pattern, holds: func(a, _ string) bool {
		return re.MatchString(a)
	}}, nil
}

// Evaluate runs c against actual and returns an *AssertionFailure when it
// does not hold.
func Evaluate(c Check, actual string) error {
	return c.Evaluate(actual).Err()
}

// ContainsAll verifies that actual contains every expected value, in any
// order. An empty expected list always passes.
func ContainsAll(actual string, expected ...string) error {
	return Evaluate(ContainsAllCheck(expected...), actual)
}

// StartsWith verifies that actual begins with prefix.
func StartsWith(actual, prefix string) error {
	return Evaluate(StartsWithCheck(prefix), actual)
}

// EndsWith verifies that actual ends with suffix.
func EndsWith(actual, suffix string) error {
	return Evaluate(EndsWithCheck(suffix), actual)
}

// Equals verifies that actual is exactly expected.
func Equals(actual, expected string) error {
	return Evaluate(EqualsCheck(expected), actual)
}

// Matches verifies that actual matches pattern. A pattern that does not
// compile is returned as a plain error, not an *AssertionFailure.
func Matches(actual, pattern string) error {
	c, err := MatchesCheck(pattern)
	if err != nil {
		return err
	}
	return Evaluate(c, actual)
}
