package visualization

import (
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
)

// Table is a model for data.
type Table struct {
	headers []string
	data    [][]string
}

// NewTable creates new model of data representation.
func NewTable(headers []string, data [][]string) *Table {
	return &Table{
		headers: headers,
		data:    data,
	}
}

// NewKeyValueTable creates a two column table from a map, rows sorted by key.
func NewKeyValueTable(keyHeader, valueHeader string, values map[string]string) *Table {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	data := make([][]string, 0, len(keys))
	for _, key := range keys {
		data = append(data, []string{key, values[key]})
	}
	return NewTable([]string{keyHeader, valueHeader}, data)
}

// DrawTable draws a table with headers and data rows to given writer.
func DrawTable(output io.Writer, table *Table) {
	writer := tablewriter.NewWriter(output)
	writer.SetHeader(table.headers)
	writer.SetAutoWrapText(false)
	for _, row := range table.data {
		writer.Append(row)
	}
	writer.Render()
}
