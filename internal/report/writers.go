package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/osteele/liquid"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Summary"

func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.stringRows()); err != nil {
		return err
	}
	return cw.Error()
}

func WriteXLSX(path string, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown renders t as a pipe table under a level-4 heading.
func RenderMarkdown(t Table) string {
	var buf strings.Builder
	if title := strings.TrimSpace(t.Title); title != "" {
		buf.WriteString(fmt.Sprintf("#### %s\n\n", title))
	}
	buf.WriteString(markdownRow(t.Header))
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	buf.WriteString(markdownRow(sep))
	for _, row := range t.stringRows() {
		buf.WriteString(markdownRow(row))
	}
	return strings.TrimSpace(buf.String()) + "\n"
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

const tableTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ title | escape }}</title>
<style>
body { font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #1f1f1f; }
table { border-collapse: collapse; }
th, td { border: 1px solid #c8c8c8; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>{{ title | escape }}</h1>
<table>
<thead><tr>{% for h in header %}<th>{{ h | escape }}</th>{% endfor %}</tr></thead>
<tbody>
{% for row in rows %}<tr>{% for cell in row %}<td>{{ cell | escape }}</td>{% endfor %}</tr>
{% endfor %}</tbody>
</table>
</body>
</html>
`

var engine = liquid.NewEngine()

func RenderHTML(t Table) (string, error) {
	return RenderTemplate(tableTemplate, map[string]any{
		"title":  t.Title,
		"header": t.Header,
		"rows":   t.stringRows(),
	})
}

// RenderTemplate renders a liquid template with the given bindings.
func RenderTemplate(tpl string, bindings map[string]any) (string, error) {
	parsed, perr := engine.ParseString(tpl)
	if perr != nil {
		return "", fmt.Errorf("parse template: %w", perr)
	}
	out, rerr := parsed.RenderString(bindings)
	if rerr != nil {
		return "", fmt.Errorf("render template: %w", rerr)
	}
	return out, nil
}
