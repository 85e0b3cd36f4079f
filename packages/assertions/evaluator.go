package assertions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/checkspec/packages/core/parser"
	"github.com/tidwall/gjson"
)

const (
	SubjectText = "text"
	SubjectJSON = "json"
)

// Result is the outcome of one suite assertion. Error is set when the
// assertion could not be evaluated at all, for example when a JSON path does
// not exist; Report is set when it was evaluated and did not hold.
type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
	Report   *FailureReport
	Error    error
}

// Evaluator evaluates suite assertions against one source document.
type Evaluator struct {
	source   string
	bodyJSON gjson.Result
	lines    []string
}

func NewEvaluator(source string) *Evaluator {
	e := &Evaluator{source: source}
	if gjson.Valid(source) {
		e.bodyJSON = gjson.Parse(source)
	}
	return e
}

func (e *Evaluator) Evaluate(assertion *parser.Assertion) *Result {
	subject := assertion.Subject
	if subject == "" {
		subject = SubjectText
	}
	result := &Result{
		Subject:  subject,
		Operator: assertion.Operator.String(),
		Expected: assertion.Expected,
	}

	actual, err := e.getActualValue(subject)
	if err != nil {
		result.Error = err
		result.Message = err.Error()
		return result
	}
	result.Actual = actual

	check, err := CheckFor(assertion)
	if err != nil {
		result.Error = err
		result.Message = err.Error()
		return result
	}

	outcome := check.Evaluate(actual)
	result.Passed = outcome.Passed()
	if !result.Passed {
		result.Report = outcome.Report
		result.Message = outcome.Report.Message()
	}
	return result
}

// CheckFor builds the Check matching an assertion's operator.
func CheckFor(assertion *parser.Assertion) (Check, error) {
	switch assertion.Operator {
	case parser.OpContains:
		return ContainsAllCheck(assertion.ExpectedValues()...), nil
	case parser.OpStartsWith:
		return StartsWithCheck(assertion.ExpectedString()), nil
	case parser.OpEndsWith:
		return EndsWithCheck(assertion.ExpectedString()), nil
	case parser.OpEquals:
		return EqualsCheck(assertion.ExpectedString()), nil
	case parser.OpMatches:
		return MatchesCheck(assertion.ExpectedString())
	default:
		return nil, fmt.Errorf("unknown operator: %v", assertion.Operator)
	}
}

var linePattern = regexp.MustCompile(`^line\[(\d+)\]$`)

func (e *Evaluator) getActualValue(subject string) (string, error) {
	switch {
	case subject == SubjectText:
		return e.source, nil
	case subject == SubjectJSON:
		if !e.bodyJSON.Exists() {
			return "", fmt.Errorf("source is not JSON")
		}
		return e.source, nil
	case strings.HasPrefix(subject, SubjectJSON+"."):
		return e.getJSONPathValue(strings.TrimPrefix(subject, SubjectJSON+"."))
	case linePattern.MatchString(subject):
		n, _ := strconv.Atoi(linePattern.FindStringSubmatch(subject)[1])
		return e.getLine(n)
	default:
		return "", fmt.Errorf("unknown subject: %s", subject)
	}
}

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketPattern.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

var bracketPattern = regexp.MustCompile(`\[(\d+)\]`)

func (e *Evaluator) getJSONPathValue(path string) (string, error) {
	if !e.bodyJSON.Exists() {
		return "", fmt.Errorf("source is not JSON")
	}
	result := e.bodyJSON.Get(convertBracketNotation(path))
	if !result.Exists() {
		return "", fmt.Errorf("json path %q not found", path)
	}
	return result.String(), nil
}

func (e *Evaluator) getLine(n int) (string, error) {
	if e.lines == nil {
		e.lines = strings.Split(e.source, "\n")
	}
	if n >= len(e.lines) {
		return "", fmt.Errorf("line %d out of range (source has %d lines)", n, len(e.lines))
	}
	return strings.TrimSuffix(e.lines[n], "\r"), nil
}

// EvaluateAll evaluates assertions in order against source and stops at the
// first one that does not pass. The returned slice holds only the results
// that were evaluated.
func EvaluateAll(source string, assertions []*parser.Assertion) []*Result {
	evaluator := NewEvaluator(source)
	results := make([]*Result, 0, len(assertions))
	for _, a := range assertions {
		r := evaluator.Evaluate(a)
		results = append(results, r)
		if !r.Passed {
			break
		}
	}
	return results
}
