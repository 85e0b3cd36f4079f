package assertions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureReport_Message(t *testing.T) {
	tests := []struct {
		name     string
		report   FailureReport
		expected string
	}{
		{
			name:     "contains all",
			report:   FailureReport{Kind: KindContainsAll, Actual: "Hello World", Expected: "expected value(s)", Missing: []string{"Moon"}},
			expected: `The string ["Hello World"] does not contain the expected value(s): ["Moon"].`,
		},
		{
			name:     "starts with",
			report:   FailureReport{Kind: KindStartsWith, Actual: "Hello World", Expected: "World"},
			expected: `The string ["Hello World"] does not start with ["World"].`,
		},
		{
			name:     "ends with",
			report:   FailureReport{Kind: KindEndsWith, Actual: "abc", Expected: "x"},
			expected: `The string ["abc"] does not end with ["x"].`,
		},
		{
			name:     "equals",
			report:   FailureReport{Kind: KindEquals, Actual: "abc", Expected: "abd"},
			expected: `The string ["abc"] is not equal to ["abd"].`,
		},
		{
			name:     "matches",
			report:   FailureReport{Kind: KindMatches, Actual: "abc", Expected: "^z"},
			expected: `The string ["abc"] does not match the pattern ["^z"].`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.report.Message())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "contains", KindContainsAll.String())
	assert.Equal(t, "startsWith", KindStartsWith.String())
	assert.Equal(t, "endsWith", KindEndsWith.String())
	assert.Equal(t, "equals", KindEquals.String())
	assert.Equal(t, "matches", KindMatches.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestAssertionFailure_Wrapping(t *testing.T) {
	err := fmt.Errorf("check greeting: %w", StartsWith("abc", "z"))

	assert.True(t, errors.Is(err, ErrAssertionFailed))

	failure, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "z", failure.Report.Expected)

	_, ok = AsFailure(errors.New("other"))
	assert.False(t, ok)
	assert.False(t, errors.Is(errors.New("other"), ErrAssertionFailed))
}
