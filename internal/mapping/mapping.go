package mapping

import (
	"strings"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	"github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

// Selection is one confirmed association between a target field and the
// spreadsheet header chosen for it. An empty header means "don't map".
type Selection struct {
	FieldID string
	Header  string
}

// FromSelections builds the ColumnMapping submitted with an import. Rows
// where either side is blank are skipped; both sides are trimmed. When two
// selections claim the same header, the later one wins, which keeps the
// result deterministic for a given selection order.
func FromSelections(selections []Selection) model.ColumnMapping {
	mapping := make(model.ColumnMapping)
	for _, sel := range selections {
		header := strings.TrimSpace(sel.Header)
		fieldID := strings.TrimSpace(sel.FieldID)
		if header == "" || fieldID == "" {
			continue
		}
		mapping[header] = fieldID
	}
	return mapping
}

// DefaultSelections proposes an initial mapping for the given headers:
// fields are walked in catalog order and each takes the first header whose
// suggestion resolves to it and that no earlier field has claimed. Globally
// greedy, so two fields can never default to the same header.
func DefaultSelections(headers []string, fields []model.FieldSpec) []Selection {
	suggested := make(map[string]string, len(headers))
	for _, header := range headers {
		suggested[header] = Suggest(header, fields)
	}

	claimed := make(map[string]bool, len(headers))
	selections := make([]Selection, 0, len(fields))
	for _, field := range fields {
		sel := Selection{FieldID: field.ID}
		for _, header := range headers {
			if claimed[header] {
				continue
			}
			if suggested[header] == field.ID {
				sel.Header = header
				claimed[header] = true
				break
			}
		}
		selections = append(selections, sel)
	}
	return selections
}

// Validate is the local gate run before any network call: the mapping must
// target the item name field at least once, and every mapped header and
// field must be known.
func Validate(mapping model.ColumnMapping, headers []string, fields []model.FieldSpec) error {
	if len(mapping) == 0 {
		return errors.ValidationError{Field: FieldItemName, Message: "no columns are mapped"}
	}

	headerSet := make(map[string]bool, len(headers))
	for _, h := range headers {
		headerSet[h] = true
	}
	ids := KnownFieldIDs(fields)

	hasItemName := false
	for header, fieldID := range mapping {
		if len(headers) > 0 && !headerSet[header] {
			return errors.ValidationError{Field: fieldID, Message: "mapped column '" + header + "' does not exist in the spreadsheet"}
		}
		if !ids[fieldID] {
			return errors.ValidationError{Field: fieldID, Message: "unknown field id"}
		}
		if fieldID == FieldItemName {
			hasItemName = true
		}
	}

	if !hasItemName {
		return errors.ValidationError{Field: FieldItemName, Message: "map a column to the item name field before importing"}
	}
	return nil
}
