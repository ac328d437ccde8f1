package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadFile reads a workflow definition file (.yaml, .yml, or .json), decodes
// it, and runs it through both validation layers. The returned error is
// either an I/O or decode failure, or orbyt.Issues from validation.
func LoadFile(path string) (*Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = DecodeJSON(content)
	default:
		raw, err = DecodeYAML(content)
	}
	if err != nil {
		return nil, err
	}
	return Validate(raw)
}

// LoadDir discovers and loads every definition file directly under dir,
// keyed by file name without extension. Files that fail validation are
// collected into errs by name rather than aborting the whole load.
func LoadDir(dir string) (map[string]*Definition, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	defs := make(map[string]*Definition)
	errs := make(map[string]error)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		def, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs[key] = err
			continue
		}
		defs[key] = def
	}
	return defs, errs, nil
}
