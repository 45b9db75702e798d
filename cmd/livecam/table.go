package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dudu/livecam/internal/pipeline"
)

func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, col := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: col + 1, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func renderStats(stats pipeline.Stats) string {
	rows := make([][]string, 0, len(stats.Stages)+8)
	for _, s := range stats.Stages {
		rows = append(rows, []string{"stage " + s.Name, strconv.FormatUint(s.Processed, 10)})
	}
	counters := []struct {
		label string
		value uint64
	}{
		{"captures", stats.Captures},
		{"capture failures", stats.CaptureFailures},
		{"settings applied", stats.ConfigApplied},
		{"settings rejected", stats.ConfigFailures},
		{"average restarts", stats.AverageResets},
		{"renders", stats.Renders},
		{"not displayed", stats.SkippedDisplays},
		{"saved", stats.Saves},
		{"save failures", stats.SaveFailures},
	}
	for _, c := range counters {
		rows = append(rows, []string{c.label, strconv.FormatUint(c.value, 10)})
	}
	return renderTable([]string{"Counter", "Value"}, rows, 1)
}
