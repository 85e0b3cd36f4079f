package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/checkspec/packages/core/runner"
	"github.com/abdul-hamid-achik/checkspec/packages/log"
	"github.com/abdul-hamid-achik/checkspec/packages/output"
	"github.com/abdul-hamid-achik/checkspec/packages/snapshot"
)

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores flag defaults; cobra keeps parsed values between runs.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

const passingSuite = `name: greetings
variables:
  who: World
checks:
  - name: greeting
    value: "Hello {{who}}"
    tags: [smoke]
    expect:
      - contains: [Hello, World]
      - startsWith: Hello
  - name: pending
    value: x
    skip: not ready
    expect:
      - equals: x
`

const failingSuite = `checks:
  - name: prefix
    value: Hello
    expect:
      - startsWith: x
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greetings.check.yaml", passingSuite)
	writeFile(t, dir, "notes.txt", "ignored")

	out, err := execute(t, "run", dir, "-o", "json", "--log-level", "silent")
	require.NoError(t, err)

	var result output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, output.JSONSummary{Total: 2, Passed: 1, Skipped: 1}, result.Summary)
}

func TestRun_FailureExitCode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "prefix.check.yaml", failingSuite)

	out, err := execute(t, "run", path, "--no-color", "--log-level", "silent")
	require.Error(t, err)
	assert.Equal(t, ExitCheckFailure, exitCode(err))
	assert.Contains(t, out, `The string ["Hello"] does not start with ["x"].`)
	assert.Contains(t, out, "1 failed")
}

func TestRun_ParseErrorExitCode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.check.yaml", "checks: [")

	_, err := execute(t, "run", path, "--log-level", "silent")
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
}

func TestRun_NoSuiteFiles(t *testing.T) {
	_, err := execute(t, "run", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
	assert.Contains(t, err.Error(), "no suite files found")
}

func TestRun_UnknownOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.check.yaml", passingSuite)

	_, err := execute(t, "run", path, "-o", "html")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRun_InvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.check.yaml", passingSuite)

	_, err := execute(t, "run", path, "--log-level", "loud")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "prefix.check.yaml", failingSuite)

	out, err := execute(t, "run", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would run: "+path+" (1 checks)")
}

func TestRun_TagsFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.check.yaml", passingSuite+failingSuite[len("checks:\n"):])

	out, err := execute(t, "run", path, "-o", "json", "--tags", "smoke", "--log-level", "silent")
	require.NoError(t, err)

	var result output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Summary.Passed)
	assert.Equal(t, 0, result.Summary.Failed)
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.check.yaml", `checks:
  - name: configured
    value: "{{host}}"
    expect:
      - equals: example.com
`)
	configPath := writeFile(t, dir, "checkspec.config.json", `{"variables": {"host": "example.com"}, "reporters": ["tap"], "logLevel": "silent"}`)

	out, err := execute(t, "run", path, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "TAP version 13")
	assert.Contains(t, out, "ok 1 - configured")
}

func TestRun_OutputFileAndHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.check.yaml", passingSuite)
	report := filepath.Join(dir, "report.xml")
	db := filepath.Join(dir, "history.db")

	_, err := execute(t, "run", path, "-o", "junit", "--output-file", report, "--history", db, "--log-level", "silent")
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testsuites name="checkspec"`)

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "1 passed, 0 failed, 1 skipped")
}

func TestHistory_NoDatabase(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.check.yaml", passingSuite)

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: "+good)

	bad := writeFile(t, dir, "bad.check.yaml", `checks:
  - name: no expectations
    value: x
`)
	out, err = execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
	assert.Contains(t, out, "Error in "+bad)
}

func TestValidate_InvalidPattern(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pattern.check.yaml", `checks:
  - name: broken
    value: x
    expect:
      - matches: "("
`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
	assert.Contains(t, out, "Error in "+path)
	assert.Contains(t, out, `check "broken"`)
	assert.NotContains(t, out, "Valid: ")
}

func TestValidate_UnresolvedExpressions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.check.yaml", `variables:
  who: World
checks:
  - name: greeting
    value: "Hello {{who}} from {{place}}"
    expect:
      - endsWith: "{{suffix}}"
      - startsWith: "{{upper(h)}}"
`)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: "+path)
	assert.Contains(t, out, "unresolved expression {{place}}")
	assert.Contains(t, out, "unresolved expression {{suffix}}")
	assert.NotContains(t, out, "{{who}}")
	assert.NotContains(t, out, "{{upper(h)}}")
}

func TestHistory_QueryErrorIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE runs (id TEXT PRIMARY KEY, started_at INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = execute(t, "history", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestRunSession_TriggersRerun(t *testing.T) {
	dir := t.TempDir()
	fixtureDir := filepath.Join(dir, "fixtures")
	require.NoError(t, os.MkdirAll(fixtureDir, 0755))
	fixture := writeFile(t, fixtureDir, "user.json", `{"user": {"name": "Alice"}}`)
	suite := writeFile(t, dir, "user.check.yaml", `checks:
  - name: user
    file: fixtures/user.json
    expect:
      - subject: json.user.name
        equals: Alice
`)
	envFile := writeFile(t, dir, "test.env", "WHO=World\n")

	session := &runSession{
		runner:    runner.NewRunner(nil),
		snapshots: snapshot.NewManager(false),
		files:     []string{suite},
		envFile:   envFile,
		logger:    log.Discard,
		fixtures:  make(map[string]bool),
	}

	assert.False(t, session.triggersRerun(fixture))

	formatter, err := output.New("json", io.Discard, false, true)
	require.NoError(t, err)
	summary, err := session.run(context.Background(), formatter)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Passed)

	assert.True(t, session.triggersRerun(fixture))
	assert.True(t, session.triggersRerun(suite))
	assert.True(t, session.triggersRerun(envFile))
	assert.False(t, session.triggersRerun(filepath.Join(fixtureDir, "other.json")))
	assert.ElementsMatch(t, []string{dir, fixtureDir}, session.watchDirs())
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.check.yaml", passingSuite)

	out, err := execute(t, "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  - greeting\n    tags: [smoke]")
	assert.Contains(t, out, "  - pending (skip: not ready)")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "checkspec project initialized!")

	_, err = execute(t, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--force")
	require.NoError(t, err)

	// the generated example passes with the generated config
	out, err = execute(t, "run", "example.check.yaml", "-o", "json")
	require.NoError(t, err)

	var result output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Summary.Passed)
	assert.Equal(t, 0, result.Summary.Failed)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "checkspec version dev")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag: --nope")))
	assert.Equal(t, ExitConfigError, exitCode(withExitCode(ExitConfigError, errors.New("bad"))))

	wrapped := withExitCode(ExitCheckFailure, errors.New("2 check(s) failed"))
	assert.Equal(t, "2 check(s) failed", wrapped.Error())
}

func TestIsSuiteFile(t *testing.T) {
	assert.True(t, isSuiteFile("a.check.yaml"))
	assert.True(t, isSuiteFile("dir/a.check.yml"))
	assert.True(t, isSuiteFile("a.checkspec"))
	assert.False(t, isSuiteFile("a.yaml"))
	assert.False(t, isSuiteFile("__snapshots__/a.snap.json"))
}
