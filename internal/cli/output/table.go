package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table is a titled grid of values.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
	// Empty is printed instead of the grid when there are no rows.
	Empty string
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) writer() table.Writer {
	tw := table.NewWriter()
	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		tw.AppendRow(table.Row(row))
	}
	return tw
}

// Table writes t in the renderer's mode. JSON and YAML modes encode the
// rows as a list of header-keyed objects.
func (r *Renderer) Table(t Table) error {
	mode := r.EffectiveMode()
	switch mode {
	case ModeJSON, ModeYAML:
		_, err := r.Structured(t.records())
		return err
	}

	if len(t.Rows) == 0 {
		if t.Empty != "" && mode != ModeCSV {
			r.title(t.Title)
			r.Println(t.Empty)
			r.Println("")
		}
		return nil
	}

	tw := t.writer()
	tw.SetOutputMirror(r.out)
	switch mode {
	case ModeCSV:
		tw.RenderCSV()
	case ModeMarkdown:
		r.title(t.Title)
		tw.RenderMarkdown()
	default:
		tw.SetStyle(table.StyleLight)
		if t.Title != "" {
			tw.SetTitle(t.Title)
		}
		tw.Render()
	}
	r.Println("")
	return nil
}

func (r *Renderer) title(text string) {
	if text != "" {
		r.Header(2, text)
	}
}

func (t Table) records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Header))
		for i, h := range t.Header {
			if i < len(row) {
				rec[recordKey(h)] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

func recordKey(header string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", "_"))
}

// FormatHeader returns a markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown bullet with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// KeyValue writes one key/value line for the mode.
func (r *Renderer) KeyValue(key, value string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		r.Println(FormatKeyValue(key, value))
	case ModeCSV:
		r.Printf("%s,%s\n", key, strings.ReplaceAll(value, ",", "\\,"))
	default:
		r.Printf("%s %s\n", r.styles.Muted.Render(key+":"), value)
	}
}
