package export

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/fileutils"
)

// RenderTable draws t for a terminal. Text cells are flattened to one line and cut to maxCell
// runes (no limit when maxCell <= 0); integer columns are right aligned.
func RenderTable(t analysis.Table, maxCell int) string {
	columns := len(t.Columns)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	numeric := make([]bool, columns)
	for i := range numeric {
		numeric[i] = len(t.Rows) > 0
	}
	for _, row := range t.Rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i >= len(row) {
				r[i] = ""
				numeric[i] = false
				continue
			}
			switch v := row[i].(type) {
			case int:
				r[i] = v
			case string:
				r[i] = fileutils.Truncate(fileutils.SanitizeNewlines(v), maxCell)
				numeric[i] = false
			default:
				r[i] = fmt.Sprint(v)
				numeric[i] = false
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if numeric[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// StageSummary tabulates per-stage unit and placeholder counts of a run.
func StageSummary(arts *analysis.Artifacts) analysis.Table {
	t := analysis.Table{
		Name:    "stages",
		Columns: []string{"Stage", "Units", "Placeholders", "Status"},
	}
	units := map[analysis.Stage]int{
		analysis.StageExtract: len(arts.Extracts),
		analysis.StageMerge:   len(arts.Merged),
	}
	if arts.Structure != nil {
		units[analysis.StageStructure] = 1
	}
	for _, s := range []analysis.Stage{analysis.StageExtract, analysis.StageMerge, analysis.StageStructure} {
		status := "not run"
		if arts.Done(s) {
			status = "done"
		}
		t.Rows = append(t.Rows, []any{string(s), units[s], arts.Degraded(s), status})
	}
	return t
}
