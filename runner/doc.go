// Package runner provides components for running a test command across day directories.
//
// The main components are:
//   - ItemExecutor: Runs the test command for a single work item and classifies its exit status
//   - WorkRunner: Walks the discovered work items in order, prints a banner per item and
//     stops at the first failing item
//
// Work items are processed strictly one after another. The command's working directory is
// set per invocation, the runner's own working directory never changes.
package runner
