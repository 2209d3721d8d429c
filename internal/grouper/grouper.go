// Package grouper clusters downloaded email artifacts into invoice groups.
// Files produced for the same email share an <identifier>_<13-digit-ms>
// basename prefix, so a purely syntactic match is enough to correlate a text
// dump with its attachments.
package grouper

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// basePattern matches the shared identifier+millisecond-timestamp prefix.
var basePattern = regexp.MustCompile(`^(.+_\d{13})`)

// allowedExts limits grouping to the artifact types the loader understands.
var allowedExts = map[string]struct{}{
	"txt": {},
	"pdf": {},
}

// GroupFiles scans dir and returns group key -> ordered file paths. Filenames
// without the prefix shape form their own singleton group. A missing directory
// yields an empty mapping, not an error.
func GroupFiles(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string][]string{}, nil
		}
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if _, ok := allowedExts[ext]; !ok {
			continue
		}
		key := name
		if m := basePattern.FindStringSubmatch(name); m != nil {
			key = m[1]
		}
		grouped[key] = append(grouped[key], filepath.Join(dir, name))
	}
	return grouped, nil
}

// SortedKeys returns group keys in deterministic order so repeated runs over
// the same directory process groups identically.
func SortedKeys(groups map[string][]string) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
