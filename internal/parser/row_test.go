package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain number", "0912345678", "0912345678"},
		{"dashes and spaces", "0912-345 678", "0912345678"},
		{"country prefix trimmed to last ten", "+886912345678", "6912345678"},
		{"short number kept as-is", "5550100", "5550100"},
		{"no digits", "未留電話", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizePhone(tt.input))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.tw", NormalizeEmail("  a@b.tw "))
	assert.Equal(t, "", NormalizeEmail("無"))
	assert.Equal(t, "", NormalizeEmail(""))
}

func TestParseQuantityFallsBackToZero(t *testing.T) {
	assert.Equal(t, 3, parseQuantity("3"))
	assert.Equal(t, 3, parseQuantity("x3"))
	assert.Equal(t, 0, parseQuantity(""))
	assert.Equal(t, 0, parseQuantity("三個"))
}

func TestParseMoneyToleratesFormatting(t *testing.T) {
	assert.Equal(t, 1280.0, parseMoney("1,280"))
	assert.Equal(t, 60.0, parseMoney("NT$60"))
	assert.Equal(t, 150.0, parseMoney("150元"))
	assert.Equal(t, 0.0, parseMoney("待確認"))
	assert.Equal(t, 0.0, parseMoney(""))
}

func TestParseTimeLayouts(t *testing.T) {
	parsed := parseTime("2025/3/7 14:30:00")
	assert.Equal(t, 2025, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 7, parsed.Day())

	// Unparseable dates never fail the row; they fall back to now.
	fallback := parseTime("三月七日")
	assert.WithinDuration(t, time.Now(), fallback, 5*time.Second)
}

func TestBuildColumnMap(t *testing.T) {
	cols := BuildColumnMap([]string{"訂單編號", " 電話 ", "", "商品名稱", "電話"})

	assert.Equal(t, 0, cols["訂單編號"])
	assert.Equal(t, 1, cols["電話"]) // duplicate keeps the first occurrence
	assert.Equal(t, 3, cols["商品名稱"])
	assert.NotContains(t, cols, "")
}

func TestColumnMapRequire(t *testing.T) {
	cols := BuildColumnMap([]string{"訂單編號", "電話"})

	assert.NoError(t, cols.Require("訂單編號", "電話"))

	err := cols.Require("訂單編號", "商品名稱")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "商品名稱")
}

func TestCellHandlesShortRows(t *testing.T) {
	cols := BuildColumnMap([]string{"a", "b", "c"})
	row := []string{"1"}

	assert.Equal(t, "1", cols.Cell(row, "a"))
	assert.Equal(t, "", cols.Cell(row, "c"))
	assert.Equal(t, "", cols.Cell(row, "missing"))
}
