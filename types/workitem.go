package types

import (
	"fmt"
	"path/filepath"
	"time"
)

// ItemStatus represents the possible states of a work item after a run
type ItemStatus string

const (
	ItemStatusPass ItemStatus = "pass"
	ItemStatusFail ItemStatus = "fail"
	ItemStatusSkip ItemStatus = "skip" // Not attempted because an earlier item failed
)

// WorkItem is a discovered day directory slated for one test command invocation.
type WorkItem struct {
	Path  string // Directory the test command runs in
	Label string // Base name of Path, used for display only
}

// NewWorkItem creates a WorkItem for the given directory path
func NewWorkItem(path string) WorkItem {
	return WorkItem{
		Path:  path,
		Label: filepath.Base(path),
	}
}

func (w WorkItem) String() string {
	return w.Label
}

// ItemResult captures the outcome of running the test command for one work item
type ItemResult struct {
	Item     WorkItem
	Status   ItemStatus
	ExitCode int           // Exit status of the test command, 0 when it passed
	Error    error         // Set when the command failed or could not be started
	Duration time.Duration // Wall time of the command
	TimedOut bool          // The command was killed because it exceeded its timeout
}

// Passed reports whether the command for this item succeeded
func (r *ItemResult) Passed() bool {
	return r != nil && r.Status == ItemStatusPass
}

// RunStats tracks item counts for a run
type RunStats struct {
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

// RunResult captures a complete run over all discovered work items
type RunResult struct {
	RunID    string
	Status   ItemStatus
	Duration time.Duration
	Stats    RunStats
	Items    []*ItemResult // In discovery order, including skipped items
}

// FirstFailure returns the result of the item that stopped the run, or nil if none failed
func (r *RunResult) FirstFailure() *ItemResult {
	for _, item := range r.Items {
		if item.Status == ItemStatusFail {
			return item
		}
	}
	return nil
}

// ExitCode returns the process exit status the run should produce
func (r *RunResult) ExitCode() int {
	if failed := r.FirstFailure(); failed != nil {
		return failed.ExitCode
	}
	return 0
}

func (r *RunResult) String() string {
	return fmt.Sprintf("Run %s: %s (total: %d, passed: %d, failed: %d, skipped: %d, duration: %s)",
		r.RunID, r.Status, r.Stats.Total, r.Stats.Passed, r.Stats.Failed, r.Stats.Skipped, r.Duration.Round(time.Millisecond))
}
