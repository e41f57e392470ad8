package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	"github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

// Decoder reads the first worksheet of an .xlsx file into a RawSheet.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode produces the RawSheet for the first worksheet. Column count is the
// maximum row width across header and data rows, so ragged rows are
// tolerated; missing cells come back as empty strings. Rows are delivered
// unmodified and in order; row-level validation happens downstream.
func (d *Decoder) Decode(data []byte) (*model.RawSheet, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrSpreadsheetUnreadable, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrSpreadsheetEmpty
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrSpreadsheetUnreadable, err)
	}

	if len(rows) == 0 {
		return nil, errors.ErrSpreadsheetEmpty
	}
	if len(rows) < 2 {
		return nil, errors.ErrSpreadsheetNoData
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	headers := DisambiguateHeaders(rows[0], width)

	dataRows := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, width)
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		dataRows = append(dataRows, record)
	}

	return &model.RawSheet{Headers: headers, Rows: dataRows}, nil
}

// DisambiguateHeaders makes column names unique the way common tabular
// libraries do, so column identities stay stable across tools: an empty
// header at index i becomes "Unnamed: i"; the second and later occurrences
// of a name get ".1", ".2" and so on appended.
func DisambiguateHeaders(headerRow []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]int, width)

	for i := 0; i < width; i++ {
		raw := ""
		if i < len(headerRow) {
			raw = strings.TrimSpace(headerRow[i])
		}
		if raw == "" {
			headers[i] = fmt.Sprintf("Unnamed: %d", i)
			continue
		}

		occurrence := seen[raw]
		seen[raw] = occurrence + 1
		if occurrence == 0 {
			headers[i] = raw
		} else {
			headers[i] = fmt.Sprintf("%s.%d", raw, occurrence)
		}
	}

	return headers
}
