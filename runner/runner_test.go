package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-dayrunner/logging"
	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

// MockItemExecutor is a mock implementation of the ItemExecutor interface
type MockItemExecutor struct {
	mock.Mock
}

func (m *MockItemExecutor) Execute(ctx context.Context, item types.WorkItem, stdout, stderr io.Writer) (*types.ItemResult, error) {
	args := m.Called(ctx, item, stdout, stderr)
	result := args.Get(0)
	err := args.Error(1)
	if result == nil {
		return nil, err
	}
	return result.(*types.ItemResult), err
}

func workItems(labels ...string) []types.WorkItem {
	items := make([]types.WorkItem, 0, len(labels))
	for _, label := range labels {
		items = append(items, types.NewWorkItem(filepath.Join("/base", label)))
	}
	return items
}

func passed(item types.WorkItem) *types.ItemResult {
	return &types.ItemResult{Item: item, Status: types.ItemStatusPass}
}

func failed(item types.WorkItem, exitCode int) *types.ItemResult {
	return &types.ItemResult{
		Item:     item,
		Status:   types.ItemStatusFail,
		ExitCode: exitCode,
		Error:    fmt.Errorf("test command failed with exit code %d", exitCode),
	}
}

func newTestRunner(t *testing.T, executor ItemExecutor, stdout io.Writer) WorkRunner {
	t.Helper()
	r, err := NewRunner(Config{
		Executor: executor,
		Stdout:   stdout,
		Stderr:   io.Discard,
		Log:      log.New(),
		RunID:    "test-run",
	})
	require.NoError(t, err)
	return r
}

func bannerLines(out string) []string {
	var banners []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "===> ") {
			banners = append(banners, line)
		}
	}
	return banners
}

func TestNewRunner_RequiresExecutor(t *testing.T) {
	_, err := NewRunner(Config{})
	assert.Error(t, err)
}

func TestNewRunner_GeneratesRunID(t *testing.T) {
	executor := new(MockItemExecutor)
	r, err := NewRunner(Config{Executor: executor, Log: log.New()})
	require.NoError(t, err)

	result, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_NoItems(t *testing.T) {
	executor := new(MockItemExecutor)
	var stdout bytes.Buffer

	result, err := newTestRunner(t, executor, &stdout).Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, stdout.String(), "no banner is printed without items")
	assert.Equal(t, types.ItemStatusPass, result.Status)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, 0, result.Stats.Total)
	executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_AllPass(t *testing.T) {
	items := workItems("Day 1", "Day 10", "Day 2")
	executor := new(MockItemExecutor)
	for _, item := range items {
		executor.On("Execute", mock.Anything, item, mock.Anything, mock.Anything).Return(passed(item), nil).Once()
	}
	var stdout bytes.Buffer

	result, err := newTestRunner(t, executor, &stdout).Run(context.Background(), items)
	require.NoError(t, err)
	executor.AssertExpectations(t)

	assert.Equal(t, "===> Day 1\n===> Day 10\n===> Day 2\n", stdout.String())
	assert.Equal(t, types.ItemStatusPass, result.Status)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, types.RunStats{Total: 3, Passed: 3, StartTime: result.Stats.StartTime, EndTime: result.Stats.EndTime}, result.Stats)
	require.Len(t, result.Items, 3)
	for i, item := range items {
		assert.Equal(t, item, result.Items[i].Item)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("item %d fails", k), func(t *testing.T) {
			items := workItems("Day 1", "Day 2", "Day 3", "Day 4")
			executor := new(MockItemExecutor)
			for i, item := range items[:k] {
				if i == k-1 {
					executor.On("Execute", mock.Anything, item, mock.Anything, mock.Anything).Return(failed(item, 100+k), nil).Once()
				} else {
					executor.On("Execute", mock.Anything, item, mock.Anything, mock.Anything).Return(passed(item), nil).Once()
				}
			}
			var stdout bytes.Buffer

			result, err := newTestRunner(t, executor, &stdout).Run(context.Background(), items)
			require.NoError(t, err)
			executor.AssertExpectations(t)
			executor.AssertNumberOfCalls(t, "Execute", k)

			assert.Len(t, bannerLines(stdout.String()), k)
			assert.Equal(t, types.ItemStatusFail, result.Status)
			assert.Equal(t, 100+k, result.ExitCode())
			assert.Equal(t, k-1, result.Stats.Passed)
			assert.Equal(t, 1, result.Stats.Failed)
			assert.Equal(t, 4-k, result.Stats.Skipped)
			require.Len(t, result.Items, 4)
			for _, skipped := range result.Items[k:] {
				assert.Equal(t, types.ItemStatusSkip, skipped.Status)
			}
		})
	}
}

func TestRun_FirstDayFailsSecondNeverInvoked(t *testing.T) {
	items := workItems("Day 1", "Day 2")
	executor := new(MockItemExecutor)
	executor.On("Execute", mock.Anything, items[0], mock.Anything, mock.Anything).Return(failed(items[0], 1), nil).Once()
	var stdout bytes.Buffer

	result, err := newTestRunner(t, executor, &stdout).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, "===> Day 1\n", stdout.String())
	assert.Equal(t, 1, result.ExitCode())
	executor.AssertNotCalled(t, "Execute", mock.Anything, items[1], mock.Anything, mock.Anything)
}

func TestRun_ExecutorError(t *testing.T) {
	items := workItems("Day 1", "Day 2")
	executor := new(MockItemExecutor)
	executor.On("Execute", mock.Anything, items[0], mock.Anything, mock.Anything).Return(nil, errors.New("broken executor")).Once()

	result, err := newTestRunner(t, executor, io.Discard).Run(context.Background(), items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running Day 1")
	assert.Equal(t, types.ItemStatusFail, result.Status)
	assert.Equal(t, 2, result.Stats.Skipped)
	executor.AssertNumberOfCalls(t, "Execute", 1)
}

func TestRun_CancelledContext(t *testing.T) {
	items := workItems("Day 1", "Day 2")
	executor := new(MockItemExecutor)
	ctx, cancel := context.WithCancel(context.Background())
	executor.On("Execute", mock.Anything, items[0], mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(passed(items[0]), nil).Once()
	var stdout bytes.Buffer

	result, err := newTestRunner(t, executor, &stdout).Run(ctx, items)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "===> Day 1\n", stdout.String())
	assert.Equal(t, types.ItemStatusFail, result.Status)
	assert.Equal(t, 1, result.Stats.Passed)
	assert.Equal(t, 1, result.Stats.Skipped)
}

func TestRun_BannerPrecedesCommandOutput(t *testing.T) {
	skipOnWindows(t)
	base := t.TempDir()
	var items []types.WorkItem
	for _, label := range []string{"Day 1", "Day 2"} {
		dir := filepath.Join(base, label)
		require.NoError(t, os.Mkdir(dir, 0755))
		items = append(items, types.NewWorkItem(dir))
	}

	executor := newShellExecutor(t, `basename "$PWD"`, 0)
	var stdout bytes.Buffer
	result, err := newTestRunner(t, executor, &stdout).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, "===> Day 1\nDay 1\n===> Day 2\nDay 2\n", stdout.String())
	assert.Equal(t, 0, result.ExitCode())
}

func TestRun_RealCommandFailFast(t *testing.T) {
	skipOnWindows(t)
	base := t.TempDir()
	var items []types.WorkItem
	for _, label := range []string{"Day 1", "Day 2", "Day 3"} {
		dir := filepath.Join(base, label)
		require.NoError(t, os.Mkdir(dir, 0755))
		items = append(items, types.NewWorkItem(dir))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "Day 2", "fail"), nil, 0644))

	executor := newShellExecutor(t, `touch ran; if [ -e fail ]; then exit 7; fi`, 0)
	var stdout bytes.Buffer
	result, err := newTestRunner(t, executor, &stdout).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, "===> Day 1\n===> Day 2\n", stdout.String())
	assert.Equal(t, 7, result.ExitCode())
	assert.FileExists(t, filepath.Join(base, "Day 1", "ran"))
	assert.FileExists(t, filepath.Join(base, "Day 2", "ran"))
	assert.NoFileExists(t, filepath.Join(base, "Day 3", "ran"))
}

func TestRun_WritesItemLogs(t *testing.T) {
	skipOnWindows(t)
	base := t.TempDir()
	dir := filepath.Join(base, "Day 4")
	require.NoError(t, os.Mkdir(dir, 0755))

	fileLogger, err := logging.NewFileLogger(t.TempDir(), "test-run")
	require.NoError(t, err)

	executor := newShellExecutor(t, `echo out; echo err >&2`, 0)
	var stdout, stderr bytes.Buffer
	r, err := NewRunner(Config{
		Executor:   executor,
		Stdout:     &stdout,
		Stderr:     &stderr,
		FileLogger: fileLogger,
		Log:        log.New(),
		RunID:      "test-run",
	})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []types.WorkItem{types.NewWorkItem(dir)})
	require.NoError(t, err)
	require.NoError(t, fileLogger.Close())

	assert.Equal(t, "===> Day 4\nout\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())

	itemLog, err := os.ReadFile(fileLogger.ItemLogPath("Day 4"))
	require.NoError(t, err)
	assert.Contains(t, string(itemLog), "out\n")
	assert.Contains(t, string(itemLog), "err\n")
}
