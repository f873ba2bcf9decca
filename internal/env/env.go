// Package env loads .env files so secrets such as node URLs with API keys
// stay out of the YAML config.
package env

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultFile is read from the working directory.
const DefaultFile = ".env"

// Load reads KEY=VALUE pairs from the given files (DefaultFile when none)
// into the process environment. Values in the files override variables that
// are already set. Missing files are skipped so the tool works with plain
// environment variables.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}
	for _, f := range files {
		if err := godotenv.Overload(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
