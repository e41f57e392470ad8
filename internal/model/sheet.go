package model

// RawSheet is the decoded first worksheet of an uploaded spreadsheet:
// a deduplicated, ordered header row plus every data row keyed by header.
// Cell values stay raw strings; interpretation happens later, against the
// confirmed column mapping.
type RawSheet struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// FieldSpec describes one target field the import accepts.
type FieldSpec struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ColumnMapping associates a spreadsheet header with a target field id.
// Keys are headers, values are field ids. Distinct headers may map to the
// same field; the last row processed wins.
type ColumnMapping map[string]string

// FieldFor returns the field id a header is mapped to, or "" when unmapped.
func (m ColumnMapping) FieldFor(header string) string {
	return m[header]
}

// HasField reports whether any header is mapped to the given field id.
func (m ColumnMapping) HasField(fieldID string) bool {
	for _, id := range m {
		if id == fieldID {
			return true
		}
	}
	return false
}
