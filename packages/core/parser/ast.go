package parser

import (
	"strconv"
	"strings"
)

type Suite struct {
	Path      string
	Name      string
	Variables []*Variable
	Checks    []*Check
}

type Variable struct {
	Name  string
	Value string
	Line  int
}

type Check struct {
	Name        string
	Description string
	Tags        []string
	Value       string
	File        string
	Assertions  []*Assertion
	Skip        string
	Only        bool
	Snapshot    bool
	Line        int
}

// HasFile reports whether the check reads its source from a file.
func (c *Check) HasFile() bool {
	return c.File != ""
}

// Assertion is one expectation of a check. Expected is a []string for
// OpContains and a string for every other operator.
type Assertion struct {
	Subject  string
	Operator AssertionOperator
	Expected any
	Line     int
}

// ExpectedValues returns Expected as a list, wrapping a single string.
func (a *Assertion) ExpectedValues() []string {
	switch v := a.Expected.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}

// ExpectedString returns Expected when it is a single string.
func (a *Assertion) ExpectedString() string {
	s, _ := a.Expected.(string)
	return s
}

type AssertionOperator int

const (
	OpContains AssertionOperator = iota
	OpStartsWith
	OpEndsWith
	OpEquals
	OpMatches
)

func (op AssertionOperator) String() string {
	switch op {
	case OpContains:
		return "contains"
	case OpStartsWith:
		return "startsWith"
	case OpEndsWith:
		return "endsWith"
	case OpEquals:
		return "equals"
	case OpMatches:
		return "matches"
	default:
		return "unknown"
	}
}

// LookupOperator maps a suite file key to its operator, ignoring case.
func LookupOperator(key string) (AssertionOperator, bool) {
	switch strings.ToLower(key) {
	case "contains":
		return OpContains, true
	case "startswith":
		return OpStartsWith, true
	case "endswith":
		return OpEndsWith, true
	case "equals", "==":
		return OpEquals, true
	case "matches":
		return OpMatches, true
	}
	return 0, false
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		if e.Line == 0 {
			return e.File + ": " + e.Message
		}
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}
