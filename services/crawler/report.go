package crawler

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderSummary renders the end-of-run counters as a table for the
// terminal.
func RenderSummary(s Summary) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"discovered", "written", "failed", "skipped"})
	t.AppendRow(table.Row{s.Discovered, s.Written, s.Failed, s.Skipped})
	return t.Render()
}
