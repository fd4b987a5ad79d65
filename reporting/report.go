package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

// RunReport is the YAML document describing a finished run
type RunReport struct {
	RunID     string       `yaml:"run_id"`
	Status    string       `yaml:"status"`
	ExitCode  int          `yaml:"exit_code"`
	StartTime time.Time    `yaml:"start_time"`
	EndTime   time.Time    `yaml:"end_time"`
	Duration  string       `yaml:"duration"`
	Total     int          `yaml:"total"`
	Passed    int          `yaml:"passed"`
	Failed    int          `yaml:"failed"`
	Skipped   int          `yaml:"skipped"`
	Items     []ItemReport `yaml:"items"`
}

// ItemReport describes a single work item of a run
type ItemReport struct {
	Label    string `yaml:"label"`
	Path     string `yaml:"path"`
	Status   string `yaml:"status"`
	ExitCode int    `yaml:"exit_code"`
	Duration string `yaml:"duration,omitempty"`
	TimedOut bool   `yaml:"timed_out,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// NewRunReport converts a run result into its report form
func NewRunReport(result *types.RunResult) *RunReport {
	report := &RunReport{
		RunID:     result.RunID,
		Status:    string(result.Status),
		ExitCode:  result.ExitCode(),
		StartTime: result.Stats.StartTime,
		EndTime:   result.Stats.EndTime,
		Duration:  result.Duration.String(),
		Total:     result.Stats.Total,
		Passed:    result.Stats.Passed,
		Failed:    result.Stats.Failed,
		Skipped:   result.Stats.Skipped,
		Items:     make([]ItemReport, 0, len(result.Items)),
	}

	for _, item := range result.Items {
		itemReport := ItemReport{
			Label:    item.Item.Label,
			Path:     item.Item.Path,
			Status:   string(item.Status),
			ExitCode: item.ExitCode,
			TimedOut: item.TimedOut,
		}
		if item.Status != types.ItemStatusSkip {
			itemReport.Duration = item.Duration.String()
		}
		if item.Error != nil {
			itemReport.Error = item.Error.Error()
		}
		report.Items = append(report.Items, itemReport)
	}
	return report
}

// WriteReport writes the YAML report of result to path, creating parent directories as needed
func WriteReport(path string, result *types.RunResult) error {
	data, err := yaml.Marshal(NewRunReport(result))
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
