package reporting

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

func sampleResult() *types.RunResult {
	start := time.Date(2016, 12, 1, 5, 0, 0, 0, time.UTC)
	return &types.RunResult{
		RunID:    "run-1",
		Status:   types.ItemStatusFail,
		Duration: 3 * time.Second,
		Stats: types.RunStats{
			Total:     3,
			Passed:    1,
			Failed:    1,
			Skipped:   1,
			StartTime: start,
			EndTime:   start.Add(3 * time.Second),
		},
		Items: []*types.ItemResult{
			{Item: types.NewWorkItem("/aoc/Day 1"), Status: types.ItemStatusPass, Duration: time.Second},
			{
				Item:     types.NewWorkItem("/aoc/Day 10"),
				Status:   types.ItemStatusFail,
				ExitCode: 101,
				Duration: 2 * time.Second,
				Error:    errors.New("test command failed with exit code 101"),
			},
			{Item: types.NewWorkItem("/aoc/Day 2"), Status: types.ItemStatusSkip},
		},
	}
}

func TestWriteSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	WriteSummaryTable(&buf, sampleResult())
	out := buf.String()

	assert.Contains(t, out, "Day Runner Results (3.0s)")
	assert.Contains(t, out, "Day 1")
	assert.Contains(t, out, "Day 10")
	assert.Contains(t, out, "Day 2")
	assert.Contains(t, out, "✓ pass")
	assert.Contains(t, out, "✗ fail")
	assert.Contains(t, out, "- skip")
	assert.Contains(t, out, "101")
	// go-pretty upper-cases footers with the default style
	assert.Contains(t, out, "1 PASSED, 1 FAILED, 1 SKIPPED")
}

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ pass", getResultString(types.ItemStatusPass))
	assert.Equal(t, "✗ fail", getResultString(types.ItemStatusFail))
	assert.Equal(t, "- skip", getResultString(types.ItemStatusSkip))
}

func TestNewRunReport(t *testing.T) {
	report := NewRunReport(sampleResult())

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "fail", report.Status)
	assert.Equal(t, 101, report.ExitCode)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Items, 3)

	assert.Equal(t, "Day 10", report.Items[1].Label)
	assert.Equal(t, "/aoc/Day 10", report.Items[1].Path)
	assert.Equal(t, 101, report.Items[1].ExitCode)
	assert.Equal(t, "2s", report.Items[1].Duration)
	assert.Contains(t, report.Items[1].Error, "exit code 101")

	assert.Equal(t, "skip", report.Items[2].Status)
	assert.Empty(t, report.Items[2].Duration)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	require.NoError(t, WriteReport(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded RunReport
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 101, decoded.ExitCode)
	require.Len(t, decoded.Items, 3)
	assert.Equal(t, []string{"Day 1", "Day 10", "Day 2"}, []string{decoded.Items[0].Label, decoded.Items[1].Label, decoded.Items[2].Label})
}
