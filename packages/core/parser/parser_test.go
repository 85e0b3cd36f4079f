package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_SimpleSuite(t *testing.T) {
	input := `name: greetings
checks:
  - name: greeting
    value: Hello World
    expect:
      - contains: [Hello, World]
      - startsWith: Hello
`

	suite, err := Parse(input, "greetings.check.yaml")
	require.NoError(t, err)
	assert.Equal(t, "greetings", suite.Name)
	assert.Equal(t, "greetings.check.yaml", suite.Path)
	require.Len(t, suite.Checks, 1)

	check := suite.Checks[0]
	assert.Equal(t, "greeting", check.Name)
	assert.Equal(t, "Hello World", check.Value)
	assert.False(t, check.HasFile())
	assert.Equal(t, 3, check.Line)
	require.Len(t, check.Assertions, 2)

	assert.Equal(t, OpContains, check.Assertions[0].Operator)
	assert.Equal(t, []string{"Hello", "World"}, check.Assertions[0].Expected)
	assert.Equal(t, "", check.Assertions[0].Subject)

	assert.Equal(t, OpStartsWith, check.Assertions[1].Operator)
	assert.Equal(t, "Hello", check.Assertions[1].Expected)
}

func TestParser_ContainsSingleValue(t *testing.T) {
	input := `checks:
  - name: single
    value: abc
    expect:
      - contains: b
`
	suite, err := Parse(input, "t.check.yaml")
	require.NoError(t, err)
	a := suite.Checks[0].Assertions[0]
	assert.Equal(t, []string{"b"}, a.Expected)
	assert.Equal(t, []string{"b"}, a.ExpectedValues())
}

func TestParser_Variables(t *testing.T) {
	input := `variables:
  who: World
  port: 8080
checks:
  - name: greeting
    value: "Hello {{who}}"
    expect:
      - equals: "Hello World"
`

	suite, err := Parse(input, "t.check.yaml")
	require.NoError(t, err)
	require.Len(t, suite.Variables, 2)
	assert.Equal(t, "who", suite.Variables[0].Name)
	assert.Equal(t, "World", suite.Variables[0].Value)
	assert.Equal(t, "port", suite.Variables[1].Name)
	assert.Equal(t, "8080", suite.Variables[1].Value)
	assert.Equal(t, "Hello {{who}}", suite.Checks[0].Value)
}

func TestParser_CheckMetadata(t *testing.T) {
	input := `checks:
  - name: payload
    description: user document
    file: fixtures/user.json
    tags: [smoke, api]
    only: true
    snapshot: true
    expect:
      - subject: json.user.name
        equals: Alice
  - name: pending
    value: x
    skip: not ready
    expect:
      - matches: "^x$"
`

	suite, err := Parse(input, "t.check.yaml")
	require.NoError(t, err)
	require.Len(t, suite.Checks, 2)

	payload := suite.Checks[0]
	assert.Equal(t, "user document", payload.Description)
	assert.Equal(t, "fixtures/user.json", payload.File)
	assert.True(t, payload.HasFile())
	assert.Equal(t, []string{"smoke", "api"}, payload.Tags)
	assert.True(t, payload.Only)
	assert.True(t, payload.Snapshot)
	assert.Equal(t, "json.user.name", payload.Assertions[0].Subject)
	assert.Equal(t, OpEquals, payload.Assertions[0].Operator)
	assert.Equal(t, "Alice", payload.Assertions[0].ExpectedString())

	pending := suite.Checks[1]
	assert.Equal(t, "not ready", pending.Skip)
	assert.False(t, pending.Only)
	assert.Equal(t, OpMatches, pending.Assertions[0].Operator)
}

func TestParser_BooleanSpellings(t *testing.T) {
	input := `checks:
  - name: focused
    value: x
    only: True
    snapshot: TRUE
    expect:
      - equals: x
  - name: plain
    value: x
    only: False
    expect:
      - equals: x
`

	suite, err := Parse(input, "t.check.yaml")
	require.NoError(t, err)
	require.Len(t, suite.Checks, 2)
	assert.True(t, suite.Checks[0].Only)
	assert.True(t, suite.Checks[0].Snapshot)
	assert.False(t, suite.Checks[1].Only)
	assert.False(t, suite.Checks[1].Snapshot)
}

func TestParser_Aliases(t *testing.T) {
	input := `variables:
  who: &who World
  again: *who
checks:
  - name: first
    value: &v Hello World
    tags: &tags [smoke]
    expect:
      - contains: &words [Hello, Moon]
  - name: second
    value: *v
    tags: *tags
    expect:
      - contains: *words
      - equals: *v
      - subject: text
        startsWith: *who
`

	suite, err := Parse(input, "t.check.yaml")
	require.NoError(t, err)
	require.Len(t, suite.Variables, 2)
	assert.Equal(t, "World", suite.Variables[1].Value)

	second := suite.Checks[1]
	assert.Equal(t, "Hello World", second.Value)
	assert.Equal(t, []string{"smoke"}, second.Tags)
	require.Len(t, second.Assertions, 3)
	assert.Equal(t, []string{"Hello", "Moon"}, second.Assertions[0].Expected)
	assert.Equal(t, "Hello World", second.Assertions[1].Expected)
	assert.Equal(t, "World", second.Assertions[2].Expected)
}

func TestParser_AliasedExpectationAndCheck(t *testing.T) {
	input := `checks:
  - &base
    name: base
    value: abc
    expect:
      - &starts {startsWith: a}
  - name: reused
    value: abd
    expect:
      - *starts
  - <<: *base
    name: merged
`

	suite, err := Parse(input, "t.check.yaml")
	require.NoError(t, err)
	require.Len(t, suite.Checks, 3)

	reused := suite.Checks[1]
	require.Len(t, reused.Assertions, 1)
	assert.Equal(t, OpStartsWith, reused.Assertions[0].Operator)
	assert.Equal(t, "a", reused.Assertions[0].Expected)

	merged := suite.Checks[2]
	assert.Equal(t, "merged", merged.Name)
	assert.Equal(t, "abc", merged.Value)
	require.Len(t, merged.Assertions, 1)
	assert.Equal(t, "a", merged.Assertions[0].Expected)
}

func TestParser_OperatorKeys(t *testing.T) {
	tests := []struct {
		key      string
		operator AssertionOperator
	}{
		{"contains", OpContains},
		{"startsWith", OpStartsWith},
		{"endsWith", OpEndsWith},
		{"equals", OpEquals},
		{"matches", OpMatches},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			input := "checks:\n  - name: c\n    value: v\n    expect:\n      - " + tt.key + ": v\n"
			suite, err := Parse(input, "t.check.yaml")
			require.NoError(t, err)
			assert.Equal(t, tt.operator, suite.Checks[0].Assertions[0].Operator)
			assert.Equal(t, tt.key, tt.operator.String())
		})
	}
}

func TestParser_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "missing checks",
			input: "name: empty\n",
		},
		{
			name:  "missing expect",
			input: "checks:\n  - name: c\n    value: v\n",
		},
		{
			name:  "no source",
			input: "checks:\n  - name: c\n    expect:\n      - equals: v\n",
		},
		{
			name:  "value and file",
			input: "checks:\n  - name: c\n    value: v\n    file: f.txt\n    expect:\n      - equals: v\n",
		},
		{
			name:  "two operators",
			input: "checks:\n  - name: c\n    value: v\n    expect:\n      - equals: v\n        startsWith: v\n",
		},
		{
			name:  "unknown operator",
			input: "checks:\n  - name: c\n    value: v\n    expect:\n      - within: v\n",
		},
		{
			name:  "unknown field",
			input: "checks:\n  - name: c\n    value: v\n    retries: 3\n    expect:\n      - equals: v\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "bad.check.yaml")
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "bad.check.yaml", perr.File)
			assert.Contains(t, perr.Message, "schema")
		})
	}
}

func TestParser_InvalidYAML(t *testing.T) {
	_, err := Parse("checks: [\n", "bad.check.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestParser_EmptyDocument(t *testing.T) {
	_, err := Parse("", "empty.check.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty suite")
}

func TestParser_DuplicateCheckNames(t *testing.T) {
	input := `checks:
  - name: same
    value: a
    expect:
      - equals: a
  - name: same
    value: b
    expect:
      - equals: b
`
	_, err := Parse(input, "dup.check.yaml")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 6, perr.Line)
	assert.Contains(t, perr.Message, `duplicate check name "same"`)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.check.yaml")
	content := "checks:\n  - name: c\n    value: v\n    expect:\n      - endsWith: v\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	suite, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, suite.Path)
	assert.Equal(t, OpEndsWith, suite.Checks[0].Assertions[0].Operator)

	_, err = ParseFile(filepath.Join(dir, "missing.check.yaml"))
	assert.Error(t, err)
}

func TestParseError_Error(t *testing.T) {
	assert.Equal(t, "a.yaml:3:5: boom", (&ParseError{File: "a.yaml", Line: 3, Column: 5, Message: "boom"}).Error())
	assert.Equal(t, "a.yaml: boom", (&ParseError{File: "a.yaml", Message: "boom"}).Error())
	assert.Equal(t, "line 2: boom", (&ParseError{Line: 2, Message: "boom"}).Error())
}
