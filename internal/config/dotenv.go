package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// FindDotEnv searches for a .env file starting at dir and walking toward
// the filesystem root. It returns the path of the first .env found, or ""
// when none exists. The search stops at the first hit: a project-local
// .env shadows any parent one.
func FindDotEnv(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}

// ReadDotEnv parses the .env file at path into a key/value map without
// mutating the process environment. Resolve consults the map directly,
// which keeps the load idempotent and free of global side effects.
func ReadDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return values, nil
}
