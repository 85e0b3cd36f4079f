package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel(Info)).With(Fields{"component": "runner"})

	l.Info("suite finished", Fields{"passed": 2})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "suite finished", entry["message"])
	assert.Equal(t, "runner", entry["component"])
	assert.EqualValues(t, 2, entry["passed"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel(Info))

	l.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	l.Error("failed", errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel(Debug)).With(Fields{"file": "a.check.yaml"})

	l.Debug("check", Fields{"name": "greeting"})
	assert.Contains(t, buf.String(), `"file":"a.check.yaml"`)
	assert.Contains(t, buf.String(), `"name":"greeting"`)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Info("nothing", nil)
		Discard.Error("nothing", errors.New("x"))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		text  string
		level Level
	}{
		{"silent", Silent},
		{"error", Error},
		{"INFO", Info},
		{"debug", Debug},
	}
	for _, tt := range tests {
		l, err := ParseLevel(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.level, l)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "debug", Debug.String())
	assert.Equal(t, "", Level(42).String())
}
