package output

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/checkspec/packages/core/parser"
	"github.com/abdul-hamid-achik/checkspec/packages/core/runner"
)

// JUnit failure types. A failed expectation reports its operator instead.
const (
	junitSnapshotMismatch = "SnapshotMismatch"
	junitCheckError       = "CheckError"
	junitLoadError        = "LoadError"
)

type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite is one suite file.
type JUnitTestSuite struct {
	Name       string          `xml:"name,attr"`
	File       string          `xml:"file,attr,omitempty"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is one check. Expectations that ran are listed in SystemOut.
type JUnitTestCase struct {
	Name       string          `xml:"name,attr"`
	ClassName  string          `xml:"classname,attr"`
	File       string          `xml:"file,attr,omitempty"`
	Line       int             `xml:"line,attr,omitempty"`
	Time       float64         `xml:"time,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	Failure    *JUnitProblem   `xml:"failure,omitempty"`
	Error      *JUnitProblem   `xml:"error,omitempty"`
	Skipped    *JUnitSkipped   `xml:"skipped,omitempty"`
	SystemOut  string          `xml:"system-out,omitempty"`
}

type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitProblem is the body of both <failure> and <error>.
type JUnitProblem struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter collects suites and writes one JUnit XML document on Flush.
type JUnitFormatter struct {
	writer io.Writer
	suites []JUnitTestSuite
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResult(result *runner.RunResult) {
	name := result.Suite
	if name == "" {
		name = result.File
	}

	suite := JUnitTestSuite{
		Name:      name,
		File:      result.File,
		Tests:     len(result.Results),
		Time:      result.Duration.Seconds(),
		TestCases: make([]JUnitTestCase, 0, len(result.Results)),
	}
	if result.Suite != "" {
		suite.Properties = []JUnitProperty{{Name: "suite", Value: result.Suite}}
	}

	for _, r := range result.Results {
		tc := junitCase(name, result.File, r)
		switch {
		case tc.Skipped != nil:
			suite.Skipped++
		case tc.Error != nil:
			suite.Errors++
		case tc.Failure != nil:
			suite.Failures++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	f.suites = append(f.suites, suite)
}

func junitCase(className, file string, r *runner.CheckResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      r.Name,
		ClassName: className,
		File:      file,
		Line:      r.Line,
		Time:      r.Duration.Seconds(),
	}

	if r.Description != "" {
		tc.Properties = append(tc.Properties, JUnitProperty{Name: "description", Value: r.Description})
	}
	if r.NotEvaluated > 0 {
		tc.Properties = append(tc.Properties, JUnitProperty{Name: "not_evaluated", Value: strconv.Itoa(r.NotEvaluated)})
	}
	if r.Snapshot != nil {
		tc.Properties = append(tc.Properties, JUnitProperty{Name: "snapshot", Value: snapshotState(r)})
	}

	var out strings.Builder
	for _, a := range r.Assertions {
		status := "PASS"
		if !a.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&out, "%s %s %s\n", status, a.Subject, a.Operator)
	}
	tc.SystemOut = out.String()

	switch {
	case r.Skipped:
		tc.Skipped = &JUnitSkipped{Message: r.SkipReason}
	case r.Error != nil:
		tc.Error = &JUnitProblem{
			Message: r.Error.Error(),
			Type:    junitCheckError,
		}
	case !r.Passed:
		tc.Failure = &JUnitProblem{
			Message: r.FailureMessage(),
			Type:    failureType(r),
			Content: strings.Join(failureLines(r), "\n"),
		}
	}
	return tc
}

// failureType names the first cause of a failed check.
func failureType(r *runner.CheckResult) string {
	for _, a := range r.Assertions {
		if !a.Passed {
			if a.Error != nil {
				return junitCheckError
			}
			return a.Operator
		}
	}
	if r.Snapshot != nil && !r.Snapshot.Passed {
		return junitSnapshotMismatch
	}
	return ""
}

// FormatError records a file that could not be loaded as a suite holding a
// single errored test case.
func (f *JUnitFormatter) FormatError(err error) {
	name := "checkspec"
	var pe *parser.ParseError
	if errors.As(err, &pe) && pe.File != "" {
		name = pe.File
	}

	f.suites = append(f.suites, JUnitTestSuite{
		Name:   name,
		File:   name,
		Tests:  1,
		Errors: 1,
		TestCases: []JUnitTestCase{{
			Name:      "load",
			ClassName: name,
			Error:     &JUnitProblem{Message: err.Error(), Type: junitLoadError},
		}},
	})
}

func (f *JUnitFormatter) FormatHeader(version string) {}

func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	doc := JUnitTestSuites{
		Name:       "checkspec",
		Time:       totalDuration.Seconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: f.suites,
	}
	for _, s := range f.suites {
		doc.Tests += s.Tests
		doc.Failures += s.Failures
		doc.Errors += s.Errors
		doc.Skipped += s.Skipped
	}

	if _, err := io.WriteString(f.writer, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(f.writer)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(f.writer, "\n")
	return err
}
