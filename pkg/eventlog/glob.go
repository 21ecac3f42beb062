package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ExpandGlobs expands a list of file paths and glob patterns into a
// deduplicated, sorted list of existing files. Patterns that match nothing
// are dropped.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

// StreamFiles returns the files holding a stream in dir, oldest first:
// rotated files (<stream>.jsonl.<suffix>, optionally compressed) followed by
// the live file. A missing directory or stream yields an empty list.
func StreamFiles(dir string, stream Stream) ([]string, error) {
	live := filepath.Join(dir, stream.Filename())
	rotated, err := ExpandGlobs([]string{live + ".*"})
	if err != nil {
		return nil, err
	}
	sortRotated(rotated, live)

	files := rotated
	if info, err := os.Stat(live); err == nil && info.Mode().IsRegular() {
		files = append(files, live)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// sortRotated orders rotated files oldest first. Numbered suffixes follow
// logrotate, where a higher number is older; anything else (dates) sorts
// lexically.
func sortRotated(files []string, live string) {
	sort.SliceStable(files, func(i, j int) bool {
		ni, iNum := rotationNumber(files[i], live)
		nj, jNum := rotationNumber(files[j], live)
		switch {
		case iNum && jNum:
			return ni > nj
		case iNum != jNum:
			return !iNum
		default:
			return files[i] < files[j]
		}
	})
}

// rotationNumber extracts N from "<live>.N" or "<live>.N.gz".
func rotationNumber(path, live string) (int, bool) {
	suffix := strings.TrimPrefix(path, live+".")
	if i := strings.IndexByte(suffix, '.'); i >= 0 {
		suffix = suffix[:i]
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}
