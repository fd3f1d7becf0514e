package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		index    int
		expected string
	}{
		{0, "A"},
		{1, "B"},
		{9, "J"},
		{24, "Y"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ColumnLetter(tt.index))
	}
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "Master!A1", CellRef("Master", 0, 1))
	assert.Equal(t, "Master!J12", CellRef("Master", 9, 12))
	assert.Equal(t, "表單回應!AA3", CellRef("表單回應", 26, 3))
}

func TestLetterCellRef(t *testing.T) {
	assert.Equal(t, "Master!Y42", LetterCellRef("Master", "Y", 42))
}

func TestFirstRowOfRange(t *testing.T) {
	row, err := firstRowOfRange("Master!A12:V13")
	assert.NoError(t, err)
	assert.Equal(t, int64(12), row)

	row, err = firstRowOfRange("B7")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), row)

	_, err = firstRowOfRange("Master!A:V")
	assert.Error(t, err)
}
