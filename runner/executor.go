package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-dayrunner/exitcodes"
	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

var _ ItemExecutor = (*commandExecutor)(nil)

// ItemExecutor runs the test command for a single work item.
type ItemExecutor interface {
	// Execute runs the command with the item's directory as working directory, writing the
	// command's output to stdout and stderr. A failing command is reported through the
	// returned result; the error is reserved for problems of the executor itself.
	Execute(ctx context.Context, item types.WorkItem, stdout, stderr io.Writer) (*types.ItemResult, error)
}

// CmdBuilder creates the command to run. It defaults to exec.CommandContext.
type CmdBuilder func(ctx context.Context, name string, arg ...string) *exec.Cmd

// commandExecutor implements ItemExecutor
type commandExecutor struct {
	command    string
	args       []string
	timeout    time.Duration
	cmdBuilder CmdBuilder
	log        log.Logger
}

// NewCommandExecutor creates an executor running command with args in every work item
func NewCommandExecutor(command string, args []string, timeout time.Duration, cmdBuilder CmdBuilder, logger log.Logger) (ItemExecutor, error) {
	if command == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}
	if timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if cmdBuilder == nil {
		cmdBuilder = exec.CommandContext
	}
	if logger == nil {
		logger = log.New()
	}

	return &commandExecutor{
		command:    command,
		args:       args,
		timeout:    timeout,
		cmdBuilder: cmdBuilder,
		log:        logger,
	}, nil
}

// Execute implements ItemExecutor
func (e *commandExecutor) Execute(ctx context.Context, item types.WorkItem, stdout, stderr io.Writer) (*types.ItemResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if item.Path == "" {
		return nil, fmt.Errorf("work item path cannot be empty")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := e.cmdBuilder(ctx, e.command, e.args...)
	cmd.Dir = item.Path
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = DefaultWaitDelay

	e.log.Debug("Running test command",
		"item", item.Label,
		"dir", cmd.Dir,
		"command", cmd.String(),
		"timeout", e.timeout)

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &types.ItemResult{
		Item:     item,
		Status:   types.ItemStatusPass,
		Duration: duration,
	}
	if runErr == nil {
		return result, nil
	}

	result.Status = types.ItemStatusFail
	result.ExitCode = exitCodeFromError(runErr)
	result.TimedOut = e.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded)
	if result.TimedOut {
		result.Error = fmt.Errorf("test command timed out after %s: %w", e.timeout, runErr)
	} else {
		result.Error = fmt.Errorf("test command failed with exit code %d: %w", result.ExitCode, runErr)
	}

	e.log.Debug("Test command failed",
		"item", item.Label,
		"exitCode", result.ExitCode,
		"timedOut", result.TimedOut,
		"err", runErr)
	return result, nil
}

// exitCodeFromError maps an error from exec.Cmd.Run to the status a shell would report.
// The result is never 0.
func exitCodeFromError(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return exitcodes.SignalBase + int(status.Signal())
		}
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		return exitcodes.GenericFailure
	}

	// The command never started.
	if errors.Is(err, exec.ErrNotFound) {
		return exitcodes.CommandNotFound
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Op == "chdir" {
		return exitcodes.GenericFailure
	}
	if errors.Is(err, fs.ErrNotExist) {
		return exitcodes.CommandNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return exitcodes.CommandNotExecutable
	}
	return exitcodes.GenericFailure
}
