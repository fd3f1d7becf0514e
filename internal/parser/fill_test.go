package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillDownCarriesForward(t *testing.T) {
	rows := [][]string{
		{"ORD-1", "王小明"},
		{"", ""},
		{"ORD-2", "李大華"},
		{"", ""},
	}

	FillDown(rows, 1)

	assert.Equal(t, "王小明", rows[1][1])
	assert.Equal(t, "李大華", rows[3][1])
	// The untouched column keeps its blanks.
	assert.Equal(t, "", rows[1][0])
}

func TestFillDownIsIdempotent(t *testing.T) {
	rows := [][]string{
		{"a"},
		{""},
		{"b"},
		{""},
	}

	FillDown(rows, 0)
	first := [][]string{{rows[0][0]}, {rows[1][0]}, {rows[2][0]}, {rows[3][0]}}

	FillDown(rows, 0)
	assert.Equal(t, first, rows)
}

func TestFillDownLeadingBlanksStayEmpty(t *testing.T) {
	rows := [][]string{
		{""},
		{"x"},
	}

	FillDown(rows, 0)

	assert.Equal(t, "", rows[0][0])
}

func TestFillDownSkipsShortRows(t *testing.T) {
	rows := [][]string{
		{"a", "keep"},
		{"b"},
		{"c", ""},
	}

	FillDown(rows, 1)

	assert.Equal(t, []string{"b"}, rows[1])
	assert.Equal(t, "keep", rows[2][1])
}

func TestPadRows(t *testing.T) {
	rows := PadRows([][]string{{"a"}, {"a", "b", "c"}}, 3)

	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 3)
	assert.Equal(t, "", rows[0][2])
}

func TestFillDownColumnsPerColumnState(t *testing.T) {
	cols := BuildColumnMap([]string{"電話", "姓名", "數量"})
	rows := [][]string{
		{"0912345678", "王小明", "2"},
		{"", "", "1"},
	}

	FillDownColumns(rows, cols, "電話", "姓名")

	assert.Equal(t, "0912345678", rows[1][0])
	assert.Equal(t, "王小明", rows[1][1])
	assert.Equal(t, "1", rows[1][2])
}
