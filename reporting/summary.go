package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

// WriteSummaryTable renders one row per work item followed by a totals footer
func WriteSummaryTable(w io.Writer, result *types.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Day Runner Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"#", "Day", "Duration", "Exit", "Status", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Day", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, item := range result.Items {
		duration, exit, errMsg := "-", "-", ""
		if item.Status != types.ItemStatusSkip {
			duration = formatDuration(item.Duration)
			exit = fmt.Sprintf("%d", item.ExitCode)
		}
		if item.Error != nil {
			errMsg = item.Error.Error()
		}
		t.AppendRow(table.Row{
			i + 1,
			item.Item.Label,
			duration,
			exit,
			getResultString(item.Status),
			errMsg,
		})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d passed, %d failed, %d skipped", result.Stats.Passed, result.Stats.Failed, result.Stats.Skipped),
		formatDuration(result.Duration),
		result.ExitCode(),
		getResultString(result.Status),
		"",
	})

	t.Render()
}

// getResultString returns a short string representing the item result
func getResultString(status types.ItemStatus) string {
	switch status {
	case types.ItemStatusPass:
		return "✓ pass"
	case types.ItemStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
