package parser

import "strings"

// FillDown models vertical cell merges: within the given column, every
// empty cell takes the nearest preceding non-empty value. Rows shorter than
// the column index are left untouched. Re-running on already-filled data is
// a no-op.
func FillDown(rows [][]string, col int) {
	if col < 0 {
		return
	}
	carry := ""
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[col]); v != "" {
			carry = v
			continue
		}
		if carry != "" {
			row[col] = carry
		}
	}
}

// PadRows extends every row to width cells. Spreadsheet reads drop trailing
// empty cells, which would otherwise leave merged columns out of a short
// row's reach.
func PadRows(rows [][]string, width int) [][]string {
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows
}

// FillDownColumns applies FillDown independently to each named column that
// the map resolves. Merge groups are not aligned across columns, so each
// column carries its own fill state.
func FillDownColumns(rows [][]string, cols ColumnMap, names ...string) {
	for _, name := range names {
		if idx, ok := cols[name]; ok {
			FillDown(rows, idx)
		}
	}
}
