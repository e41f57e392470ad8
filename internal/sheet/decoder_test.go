package sheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	file := excelize.NewFile()
	defer file.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	return buf.Bytes()
}

func TestDisambiguateHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		width int
		want  []string
	}{
		{
			name:  "duplicates and empties",
			input: []string{"A", "", "A", "A"},
			width: 4,
			want:  []string{"A", "Unnamed: 1", "A.1", "A.2"},
		},
		{
			name:  "width beyond header row",
			input: []string{"A"},
			width: 3,
			want:  []string{"A", "Unnamed: 1", "Unnamed: 2"},
		},
		{
			name:  "whitespace trimmed before disambiguation",
			input: []string{" Price ", "Price"},
			width: 2,
			want:  []string{"Price", "Price.1"},
		},
		{
			name:  "all unique",
			input: []string{"Item name*", "Base Unit (x)"},
			width: 2,
			want:  []string{"Item name*", "Base Unit (x)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisambiguateHeaders(tt.input, tt.width))
		})
	}
}

func TestDecodeDeliversRowsInOrder(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Item name*", "Base Unit (x)"},
		{"Widget", "PCS"},
		{"", "PCS"},
		{"Gadget", "PCS"},
	})

	rawSheet, err := NewDecoder().Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Item name*", "Base Unit (x)"}, rawSheet.Headers)
	require.Len(t, rawSheet.Rows, 3)

	// Rows come through unmodified and in order; the blank name in row 2 is
	// a downstream validation concern, not a decode concern.
	assert.Equal(t, "Widget", rawSheet.Rows[0]["Item name*"])
	assert.Equal(t, "", rawSheet.Rows[1]["Item name*"])
	assert.Equal(t, "PCS", rawSheet.Rows[1]["Base Unit (x)"])
	assert.Equal(t, "Gadget", rawSheet.Rows[2]["Item name*"])
}

func TestDecodeRaggedRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"A"},
		{"1", "2", "3"},
		{"4"},
	})

	rawSheet, err := NewDecoder().Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "Unnamed: 1", "Unnamed: 2"}, rawSheet.Headers)
	require.Len(t, rawSheet.Rows, 2)
	assert.Equal(t, "3", rawSheet.Rows[0]["Unnamed: 2"])
	assert.Equal(t, "", rawSheet.Rows[1]["Unnamed: 1"], "missing cells read as empty strings")
}

func TestDecodeErrors(t *testing.T) {
	t.Run("not a spreadsheet", func(t *testing.T) {
		_, err := NewDecoder().Decode([]byte("definitely not xlsx"))
		assert.ErrorIs(t, err, errors.ErrSpreadsheetUnreadable)
	})

	t.Run("empty sheet", func(t *testing.T) {
		data := buildWorkbook(t, nil)
		_, err := NewDecoder().Decode(data)
		assert.ErrorIs(t, err, errors.ErrSpreadsheetEmpty)
	})

	t.Run("header only", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{{"Item name*"}})
		_, err := NewDecoder().Decode(data)
		assert.ErrorIs(t, err, errors.ErrSpreadsheetNoData)
	})
}
