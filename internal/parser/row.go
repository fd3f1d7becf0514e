// Package parser converts raw spreadsheet rows into typed intermediate
// records. Parsing is pure: coercion failures fall back to documented zero
// values and never abort a batch; callers count the row errors that do occur.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is the unified intermediate record produced by every source format.
// Column layouts and status vocabularies differ between the Master sheet and
// the raw intake sheets, but the output shape is the same.
type Row struct {
	RowIndex int // 0-based index within the data block, for error messages

	OrderNo string
	Phone   string // last ≤10 digits, empty if the cell had no digits

	Name       string
	ChatHandle string
	Romanized  string
	Address    string
	Email      string

	WordChain string
	Notice    string
	Remarks   string

	OrderedAt    time.Time
	ShippingCost float64
	TotalAmount  float64

	PaidStatus string
	PackStatus string
	ShipStatus string

	CanFulfill bool

	ProductName string
	Spec        string
	Brand       string
	Quantity    int
	Amount      float64

	Packed    bool
	Delivered bool
}

// HasItem reports whether the row carries a purchasable line.
func (r Row) HasItem() bool {
	return r.ProductName != "" && r.Quantity > 0
}

// ColumnMap resolves column names to indexes. It is built once per sync from
// the sheet's header row instead of hardcoding positions.
type ColumnMap map[string]int

// BuildColumnMap builds a ColumnMap from a header row. Duplicate header
// names keep the first occurrence.
func BuildColumnMap(header []string) ColumnMap {
	cols := make(ColumnMap, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := cols[name]; !ok {
			cols[name] = i
		}
	}
	return cols
}

// Require returns an error naming the first missing column.
func (c ColumnMap) Require(names ...string) error {
	for _, name := range names {
		if _, ok := c[name]; !ok {
			return fmt.Errorf("header row is missing column %q", name)
		}
	}
	return nil
}

// Cell returns the trimmed value of the named column, or "" when the column
// is unmapped or the row is too short.
func (c ColumnMap) Cell(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// SanitizePhone strips non-digits and keeps the last 10 digits. An input
// without digits yields the empty string.
func SanitizePhone(s string) string {
	var digits []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}

// NormalizeEmail returns the trimmed email, or "" when the value does not
// look like an address at all.
func NormalizeEmail(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}

// parseQuantity coerces a cell to an integer quantity; missing or
// unparseable values become 0.
func parseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// humans sometimes type "3份" or "x3"
		f, ferr := strconv.ParseFloat(strings.Trim(s, "x份 "), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// parseMoney coerces a cell to a float amount; currency symbols and
// thousands separators are tolerated, anything else becomes 0.
func parseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.NewReplacer(",", "", "$", "", "NT", "", "元", "").Replace(s)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

var timeLayouts = []string{
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02 15:04:05",
	"2006/1/2",
	"2006-01-02",
	time.RFC3339,
}

// parseTime coerces a cell to a timestamp. An unparseable date never fails
// the row; it falls back to the current time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

// parseFlag treats any non-empty cell except explicit negatives as set.
func parseFlag(s string) bool {
	s = strings.TrimSpace(s)
	switch s {
	case "", "否", "0", "false", "FALSE", "no", "N":
		return false
	}
	return true
}
