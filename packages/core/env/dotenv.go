package env

import (
	"fmt"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads the variables of a .env file. Values may reference keys
// defined earlier in the same file with ${KEY}. The process environment is
// left untouched.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file %s: %w", path, err)
	}
	return vars, nil
}
