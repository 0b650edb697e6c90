package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableSpec describes one rendered table. Rows shorter than Headers are padded.
type tableSpec struct {
	Title   string
	Headers []string
	Aligns  []columnAlignment
	Rows    [][]string
	Footer  []string
}

func renderTable(def tableSpec) string {
	columns := len(def.Headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if def.Title != "" {
		tw.SetTitle(def.Title)
	}
	tw.AppendHeader(padRow(def.Headers, columns))
	for _, row := range def.Rows {
		tw.AppendRow(padRow(row, columns))
	}
	if len(def.Footer) > 0 {
		tw.AppendFooter(padRow(def.Footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(def.Aligns) && def.Aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func padRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range columns {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
