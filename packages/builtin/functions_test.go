package builtin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		expr     string
		expected any
	}{
		{`upper(hello)`, "HELLO"},
		{`lower("Hello World")`, "hello world"},
		{`trim("  padded  ")`, "padded"},
		{`repeat(ab, 3)`, "ababab"},
		{`base64(hello)`, "aGVsbG8="},
		{`base64Decode(aGVsbG8=)`, "hello"},
		{`md5(hello)`, "5d41402abc4b2a76b9719d911017c592"},
		{`sha256(hello)`, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{`urlEncode("a b&c")`, "a+b%26c"},
		{`urlDecode(a+b%26c)`, "a b&c"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := r.Call(tt.expr)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegistry_UUID(t *testing.T) {
	got, ok := NewRegistry().Call("uuid()")
	require.True(t, ok)
	_, err := uuid.Parse(got.(string))
	assert.NoError(t, err)
}

func TestRegistry_Env(t *testing.T) {
	t.Setenv("CHECKSPEC_TEST_VALUE", "from-env")
	got, ok := NewRegistry().Call("env(CHECKSPEC_TEST_VALUE)")
	require.True(t, ok)
	assert.Equal(t, "from-env", got)
}

func TestRegistry_Unknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Call("nope()")
	assert.False(t, ok)
	_, ok = r.Call("not a call")
	assert.False(t, ok)
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseArgs("a, b"))
	assert.Equal(t, []string{"a, b", "c"}, parseArgs(`"a, b", c`))
	assert.Equal(t, []string{"it's"}, parseArgs(`"it's"`))
}
