package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableSpec fixes the headers and column alignment for one of the CLI's
// tables so every command renders them the same way.
type tableSpec struct {
	headers      []string
	rightAligned map[int]bool
}

var (
	queueListTable = tableSpec{
		headers:      []string{"ID", "Order", "Name", "Type", "State", "Profile", "Created"},
		rightAligned: map[int]bool{0: true, 1: true},
	}
	queueStatsTable = tableSpec{
		headers:      []string{"State", "Count"},
		rightAligned: map[int]bool{1: true},
	}
	profileListTable = tableSpec{
		headers: []string{"ID", "Name", "Version", "Loader", "State", "Last Played"},
	}
)

func renderTable(spec tableSpec, rows [][]string) string {
	columns := len(spec.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, title := range spec.headers {
		header[i] = title
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if spec.rightAligned[i] {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
