// Package report renders district and surveyor summaries as tables and
// writes them out as xlsx, csv, markdown or html.
package report

import (
	"math"
	"strconv"

	"fieldreport/internal/domain"
)

// Table is a rendered summary with a fixed column order. Cells hold string,
// int or float64 values; nil renders as an empty cell.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

var districtHeader = []string{
	"District Name",
	domain.CounterClosed.Title(),
	domain.CounterOffPlan.Title(),
	domain.CounterInProgress.Title(),
	domain.CounterOpen.Title(),
	domain.CounterPlanned.Title(),
	"Total Territories",
	"Completed Total",
	"Remaining Total",
	"Completion %",
	"Overall District Status",
}

var surveyorHeader = []string{
	"Surveyor",
	"Submissions per Hour",
	"Avg Quality Score",
	"Quality Std Dev",
	"Tier",
}

func DistrictTable(summaries []domain.DistrictSummary) Table {
	t := Table{Title: "Territory Status Summary", Header: districtHeader}
	for _, s := range summaries {
		row := make([]any, 0, len(districtHeader))
		row = append(row, s.Name)
		for _, c := range domain.AllCounters() {
			row = append(row, s.Counts[c])
		}
		row = append(row, s.Total, s.Completed, s.Remaining, s.CompletionPct, string(s.Status))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func SurveyorTable(summaries []domain.SurveyorSummary) Table {
	t := Table{Title: "Surveyor Performance Summary", Header: surveyorHeader}
	for _, s := range summaries {
		var rate any
		if s.SubmissionsPerHour != nil {
			rate = round4(*s.SubmissionsPerHour)
		}
		t.Rows = append(t.Rows, []any{
			s.Surveyor,
			rate,
			round4(s.MeanQuality),
			round4(s.QualityStdDev),
			string(s.Tier),
		})
	}
	return t
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// formatCell renders a cell for the text formats.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func (t Table) stringRows() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		out = append(out, cells)
	}
	return out
}
