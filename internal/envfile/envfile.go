// Package envfile loads dotenv files into the process environment so the
// driver can pick up service credentials without exporting them by hand.
//
// Variables already present in the environment always win; a .env file
// never overrides the caller's shell.
package envfile

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// PathOverride names the environment variable that pins the .env location,
// bypassing the upward search.
const PathOverride = "RESCRIBE_ENV_PATH"

// Result reports what a load attempt did.
type Result struct {
	// Path is the file consulted, empty when none was found.
	Path string

	// Loaded is true once the file was opened, even if zero keys applied.
	Loaded bool

	// Keys counts variables actually set (skipped lines and already-set
	// variables do not count).
	Keys int

	// Err is the first error hit, if any. A missing file during the
	// upward search is not an error.
	Err error
}

// Load finds and applies the nearest .env file. PathOverride takes
// precedence; otherwise the search walks from the working directory
// upward and stops at the first hit. No file found is a no-op.
func Load() Result {
	if override := strings.TrimSpace(os.Getenv(PathOverride)); override != "" {
		return LoadPath(override)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return Result{Err: err}
	}
	path := findUpwards(cwd, ".env")
	if path == "" {
		return Result{}
	}
	return LoadPath(path)
}

// LoadPath applies one specific dotenv file.
func LoadPath(path string) Result {
	res := Result{Path: path}

	file, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer file.Close()
	res.Loaded = true

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := parseAssignment(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			res.Err = err
			return res
		}
		res.Keys++
	}
	if err := scanner.Err(); err != nil {
		res.Err = err
	}
	return res
}

// parseAssignment extracts KEY=value from one line. Blank lines, comments,
// and lines without a key are skipped. A leading "export " and single or
// double quotes around the value are tolerated.
func parseAssignment(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if rest, found := strings.CutPrefix(line, "export "); found {
		line = strings.TrimSpace(rest)
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, unquote(strings.TrimSpace(value)), true
}

// unquote strips one layer of matched single or double quotes.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

// findUpwards walks from start toward the filesystem root looking for
// filename, returning the first hit or "".
func findUpwards(start, filename string) string {
	dir := start
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
