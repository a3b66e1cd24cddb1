package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScriptExtension is the recognized migration script file extension.
const ScriptExtension = ".sql"

// ErrMissingDir reports that the script directory does not exist. Callers
// branch on it: status prints a note, apply treats it as fatal.
var ErrMissingDir = errors.New("migration directory does not exist")

// Script is one schema-change unit read from the script directory.
type Script struct {
	// Identifier is the token preceding the first underscore in the
	// filename; unique across the directory.
	Identifier string

	// Filename is the base name of the script file; its sort order
	// defines application order.
	Filename string

	// Body is the raw SQL text, executed verbatim.
	Body string
}

// ParseIdentifier extracts the identifier from a script filename of the
// form <identifier>_<description>.sql.
func ParseIdentifier(filename string) (string, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	identifier, _, found := strings.Cut(base, "_")
	if !found {
		return "", fmt.Errorf("invalid script filename %q: expected <identifier>_<description>%s", filename, ScriptExtension)
	}
	if identifier == "" {
		return "", fmt.Errorf("invalid script filename %q: empty identifier", filename)
	}
	return identifier, nil
}

// Load reads every migration script from dir, sorted by filename. A missing
// directory returns ErrMissingDir; an empty directory returns an empty
// slice. Duplicate identifiers are a configuration error, not a silent
// dedup.
func Load(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingDir, dir)
		}
		return nil, fmt.Errorf("failed to read migration directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ScriptExtension) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	scripts := make([]Script, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		identifier, err := ParseIdentifier(name)
		if err != nil {
			return nil, err
		}
		if previous, ok := seen[identifier]; ok {
			return nil, fmt.Errorf("duplicate migration identifier %q: %s and %s", identifier, previous, name)
		}
		seen[identifier] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration script %s: %w", name, err)
		}

		scripts = append(scripts, Script{
			Identifier: identifier,
			Filename:   name,
			Body:       string(body),
		})
	}

	return scripts, nil
}
