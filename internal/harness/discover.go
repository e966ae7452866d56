package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FindScenarios returns the scenario files under path in lexical order.
// A file path is returned as is; a directory is walked for .yaml and .yml
// files, skipping hidden entries and testdata/golden.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var found []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != path && (strings.HasPrefix(name, ".") || name == "golden") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		switch filepath.Ext(name) {
		case ".yaml", ".yml":
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(found)
	return found, nil
}

// LoadScenarios loads every scenario FindScenarios returns for path.
// Scenario names must be unique, since they name the golden files.
func LoadScenarios(path string) ([]*Scenario, error) {
	files, err := FindScenarios(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(files))
	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario %q already defined in %s", f, s.Name, prev)
		}
		seen[s.Name] = f
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
