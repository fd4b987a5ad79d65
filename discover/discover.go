// Package discover finds the day directories a run operates on.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

// Pattern matches the base name of a day directory: "Day " followed by one or more digits,
// optionally followed by a title such as "Day 1 - No Time for a Taxicab".
var Pattern = regexp.MustCompile(`^Day [0-9]+\b`)

// Discover lists the immediate children of baseDir that are directories whose
// name matches Pattern. Items are ordered by their full path using plain string
// comparison, so "Day 10" sorts before "Day 2".
func Discover(baseDir string) ([]types.WorkItem, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for base directory '%s': %w", baseDir, err)
	}

	entries, err := os.ReadDir(absBase)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory '%s': %w", absBase, err)
	}

	var items []types.WorkItem
	for _, entry := range entries {
		if !Pattern.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(absBase, entry.Name())
		if !isDir(entry, path) {
			log.Debug("Skipping non-directory entry", "path", path)
			continue
		}
		items = append(items, types.NewWorkItem(path))
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})

	log.Debug("Discovered work items", "baseDir", absBase, "count", len(items))
	return items, nil
}

// isDir follows symlinks, matching the behaviour of a shell `-d` test.
func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
