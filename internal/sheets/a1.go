package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLetter converts a 0-based column index to its A1 letter ("A", "B",
// ..., "AA").
func ColumnLetter(index int) string {
	letters := ""
	n := index
	for n >= 0 {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
	}
	return letters
}

// CellRef builds an A1 cell reference for a 0-based column and 1-based row.
func CellRef(sheetName string, colIndex int, row int64) string {
	return fmt.Sprintf("%s!%s%d", sheetName, ColumnLetter(colIndex), row)
}

// LetterCellRef builds an A1 cell reference from a fixed column letter.
func LetterCellRef(sheetName, letter string, row int64) string {
	return fmt.Sprintf("%s!%s%d", sheetName, letter, row)
}

// firstRowOfRange extracts the starting row number of an A1 range such as
// "Master!A12:V13".
func firstRowOfRange(a1 string) (int64, error) {
	if i := strings.IndexByte(a1, '!'); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.IndexByte(a1, ':'); i >= 0 {
		a1 = a1[:i]
	}
	digits := strings.TrimLeft(a1, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse row from range %q", a1)
	}
	return row, nil
}
