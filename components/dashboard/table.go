package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Column formats.
const (
	FormatText     = "text"
	FormatNumber   = "number"
	FormatCurrency = "currency"
	FormatPercent  = "percent"
)

// SortDirection orders table rows. The empty direction keeps source order.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// NextSort advances the header-click cycle: a new column starts ascending,
// the same column goes asc, desc, then back to unsorted.
func NextSort(currentColumn string, current SortDirection, clicked string) (string, SortDirection) {
	if currentColumn != clicked {
		return clicked, SortAsc
	}
	switch current {
	case SortAsc:
		return clicked, SortDesc
	case SortDesc:
		return "", SortNone
	default:
		return clicked, SortAsc
	}
}

// Column describes one table column.
type Column struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Format   string `json:"format,omitempty"`
	Sortable bool   `json:"sortable,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
}

// Table is the tabular form of a widget. Rows hold raw values in column
// order.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// TableQuery narrows and orders a table.
type TableQuery struct {
	Search    string
	SortBy    string
	Direction SortDirection
}

// Apply returns a copy of t with rows matching Search (case-insensitive,
// any visible column) ordered by SortBy.
func (t Table) Apply(q TableQuery) Table {
	out := Table{Columns: t.Columns, Rows: make([][]any, 0, len(t.Rows))}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	for _, row := range t.Rows {
		if term == "" || t.rowContains(row, term) {
			out.Rows = append(out.Rows, row)
		}
	}
	idx := t.columnIndex(q.SortBy)
	if idx < 0 || q.Direction == SortNone || !t.Columns[idx].Sortable {
		return out
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		less := lessValue(out.Rows[i][idx], out.Rows[j][idx])
		if q.Direction == SortDesc {
			return lessValue(out.Rows[j][idx], out.Rows[i][idx])
		}
		return less
	})
	return out
}

// Visible returns the columns that are not hidden.
func (t Table) Visible() []Column {
	out := make([]Column, 0, len(t.Columns))
	for _, col := range t.Columns {
		if !col.Hidden {
			out = append(out, col)
		}
	}
	return out
}

// WriteCSV writes the visible columns with a header row.
func (t Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	var (
		header  []string
		indexes []int
	)
	for i, col := range t.Columns {
		if col.Hidden {
			continue
		}
		header = append(header, col.Label)
		indexes = append(indexes, i)
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, len(indexes))
		for i, idx := range indexes {
			if idx < len(row) {
				record[i] = csvCell(row[idx])
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (t Table) columnIndex(key string) int {
	for i, col := range t.Columns {
		if col.Key == key {
			return i
		}
	}
	return -1
}

func (t Table) rowContains(row []any, term string) bool {
	for i, col := range t.Columns {
		if col.Hidden || i >= len(row) {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(row[i])), term) {
			return true
		}
	}
	return false
}

func lessValue(a, b any) bool {
	af, aNum := numeric(a)
	bf, bNum := numeric(b)
	if aNum && bNum {
		return af < bf
	}
	return strings.ToLower(fmt.Sprint(a)) < strings.ToLower(fmt.Sprint(b))
}

func numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

func csvCell(v any) string {
	if f, ok := numeric(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// seriesTable flattens chart series into a label column plus one column per
// series.
func seriesTable(labels []string, series []ChartSeries) Table {
	table := Table{Columns: []Column{{Key: "label", Label: "Label", Format: FormatText, Sortable: true}}}
	for _, s := range series {
		table.Columns = append(table.Columns, Column{Key: s.Name, Label: s.Name, Format: FormatNumber, Sortable: true})
	}
	for i, label := range labels {
		row := make([]any, 0, len(series)+1)
		row = append(row, label)
		for _, s := range series {
			if i < len(s.Points) {
				row = append(row, s.Points[i].Value)
			} else {
				row = append(row, nil)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
