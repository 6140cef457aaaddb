package main

import (
	"strconv"

	"github.com/fwojciec/chronologue"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	// Headers carry run IDs, keep them as written.
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
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

// renderSummary renders the counters of a pipeline result.
func renderSummary(r *chronologue.Result) string {
	rows := [][]string{
		{"Scenes", strconv.Itoa(r.TotalScenes)},
		{"Changed", strconv.Itoa(r.ScenesChanged)},
		{"Needs review", strconv.Itoa(r.ScenesNeedingReview)},
		{"Backward time", strconv.Itoa(r.ScenesWithBackwardTime)},
		{"Large gaps", strconv.Itoa(r.ScenesWithLargeGaps)},
		{"Level 1 applied", strconv.Itoa(r.Level1Applied)},
		{"Level 2 refined", strconv.Itoa(r.Level2Refined)},
		{"Level 3 refined", strconv.Itoa(r.Level3Refined)},
	}
	if r.Cancelled {
		rows = append(rows, []string{"Cancelled", "yes"})
	}
	return renderTable([]string{"Run " + shortID(r.RunID), "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

// renderChanges lists entries with their original and proposed When.
func renderChanges(entries []chronologue.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		was := e.OriginalWhenRaw
		if e.HasOriginal() {
			was = chronologue.FormatWhen(e.OriginalWhen)
		}
		rows[i] = []string{
			e.Scene.Title,
			was,
			chronologue.FormatWhen(e.EffectiveWhen()),
			string(e.Source),
			string(e.Confidence),
		}
	}
	return renderTable([]string{"Scene", "Was", "When", "Source", "Conf"}, rows, nil)
}

// renderHistory lists past runs, oldest first.
func renderHistory(runs []chronologue.RunSummary) string {
	rows := make([][]string, len(runs))
	for i, s := range runs {
		levels := "1"
		if s.Keyword {
			levels += "+2"
		}
		if s.AI {
			levels += "+3"
		}
		if s.Provider != "" {
			levels += " (" + s.Provider + ")"
		}
		if s.Cancelled {
			levels += " cancelled"
		}
		rows[i] = []string{
			shortID(s.RunID),
			s.At.Local().Format("2006-01-02 15:04"),
			string(s.Preset),
			levels,
			strconv.Itoa(s.TotalScenes),
			strconv.Itoa(s.ScenesChanged),
			strconv.Itoa(s.ScenesNeedingReview),
		}
	}
	return renderTable(
		[]string{"Run", "At", "Pattern", "Levels", "Scenes", "Changed", "Review"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
