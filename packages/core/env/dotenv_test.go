package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{"empty file", "", map[string]string{}},
		{"comments only", "# greeting defaults\n\n# more", map[string]string{}},
		{"plain values", "WHO=World\nGREETING=Hello", map[string]string{"WHO": "World", "GREETING": "Hello"}},
		{"export prefix", "export WHO=World", map[string]string{"WHO": "World"}},
		{"double quotes keep spaces", `PHRASE="Hello  World"`, map[string]string{"PHRASE": "Hello  World"}},
		{"single quotes are literal", `PATTERN='^H\w+$'`, map[string]string{"PATTERN": `^H\w+$`}},
		{"inline comment", "WHO=World # who to greet", map[string]string{"WHO": "World"}},
		{"equals inside value", "QUERY=a=1&b=2", map[string]string{"QUERY": "a=1&b=2"}},
		{"earlier keys expand", "WHO=World\nPHRASE=\"Hello ${WHO}\"", map[string]string{"WHO": "World", "PHRASE": "Hello World"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadDotEnv(writeEnvFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDotEnv_LeavesProcessEnvironment(t *testing.T) {
	t.Setenv("CHECKSPEC_DOTENV_UNSET", "")
	require.NoError(t, os.Unsetenv("CHECKSPEC_DOTENV_UNSET"))

	_, err := LoadDotEnv(writeEnvFile(t, "CHECKSPEC_DOTENV_UNSET=set"))
	require.NoError(t, err)

	_, ok := os.LookupEnv("CHECKSPEC_DOTENV_UNSET")
	assert.False(t, ok)
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
