package assertions

// TB is the subset of testing.TB used to surface failures in tests.
type TB interface {
	Helper()
	Fatal(args ...any)
}

// StringAssertion chains checks against one actual string. The first failing
// check is kept and every later check in the chain is skipped.
type StringAssertion struct {
	actual string
	err    error
}

// That starts a chain of checks against actual.
func That(actual string) *StringAssertion {
	return &StringAssertion{actual: actual}
}

func (a *StringAssertion) check(c Check) *StringAssertion {
	if a.err == nil {
		a.err = Evaluate(c, a.actual)
	}
	return a
}

// Contains checks that every value occurs in the string, in any order.
func (a *StringAssertion) Contains(values ...string) *StringAssertion {
	return a.check(ContainsAllCheck(values...))
}

func (a *StringAssertion) StartsWith(prefix string) *StringAssertion {
	return a.check(StartsWithCheck(prefix))
}

func (a *StringAssertion) EndsWith(suffix string) *StringAssertion {
	return a.check(EndsWithCheck(suffix))
}

func (a *StringAssertion) IsEqualTo(expected string) *StringAssertion {
	return a.check(EqualsCheck(expected))
}

func (a *StringAssertion) Matches(pattern string) *StringAssertion {
	if a.err != nil {
		return a
	}
	c, err := MatchesCheck(pattern)
	if err != nil {
		a.err = err
		return a
	}
	return a.check(c)
}

// Err returns the first failure of the chain, or nil if every check held.
func (a *StringAssertion) Err() error {
	return a.err
}

// Require stops the test with the chain's first failure message.
func (a *StringAssertion) Require(tb TB) {
	tb.Helper()
	Require(tb, a.err)
}

// Require stops the test when err is non-nil, reporting its message.
func Require(tb TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatal(err.Error())
	}
}
