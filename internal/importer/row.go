package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

// mappedRow projects one raw sheet row through the column mapping into
// field-id keyed values. Headers are walked in sheet order so that when two
// headers map to the same field the last one deterministically wins.
func mappedRow(headers []string, row map[string]string, colMapping model.ColumnMapping) map[string]string {
	values := make(map[string]string)
	for _, header := range headers {
		fieldID := colMapping.FieldFor(header)
		if fieldID == "" {
			continue
		}
		values[fieldID] = strings.TrimSpace(row[header])
	}
	return values
}

// buildItem converts mapped values into an Item. rowNum is the 1-based
// spreadsheet row (header row is 1) used in error messages.
func buildItem(companyID string, values map[string]string, rowNum int) (*model.Item, error) {
	name := values[mapping.FieldItemName]
	if name == "" {
		return nil, fmt.Errorf("row %d: item name is empty", rowNum)
	}

	item := &model.Item{
		CompanyID:     companyID,
		Name:          name,
		Description:   values[mapping.FieldDescription],
		Category:      values[mapping.FieldCategory],
		ItemCode:      values[mapping.FieldItemCode],
		Barcode:       values[mapping.FieldBarcode],
		SupplierName:  values[mapping.FieldSupplier],
		SupplierUnit:  values[mapping.FieldSupplierUnit],
		WholesaleUnit: values[mapping.FieldWholesaleUnit],
		RetailUnit:    values[mapping.FieldRetailUnit],
		TaxCategory:   values[mapping.FieldTaxCategory],
	}

	var err error
	if item.ConversionToRetail, err = parseFloat(values, mapping.FieldConversionToRetail, "retail conversion"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	if item.ConversionToSupplier, err = parseFloat(values, mapping.FieldConversionToSupplier, "supplier conversion"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	if item.PurchasePrice, err = parseFloat(values, mapping.FieldPurchasePrice, "purchase price"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	if item.WholesalePurchasePrice, err = parseFloat(values, mapping.FieldWholesalePurchasePrice, "wholesale purchase price"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	if item.StockQuantity, err = parseFloat(values, mapping.FieldStockQuantity, "stock quantity"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	if item.MinimumStock, err = parseFloat(values, mapping.FieldMinimumStock, "minimum stock"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	if item.TaxRate, err = parseFloat(values, mapping.FieldTaxRate, "tax rate"); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}

	item.BreakBulk = parseBool(values[mapping.FieldBreakBulk])
	item.TrackExpiry = parseBool(values[mapping.FieldTrackExpiry])
	item.ControlledSubstance = parseBool(values[mapping.FieldControlledSubstance])
	item.ColdChain = parseBool(values[mapping.FieldColdChain])

	return item, nil
}

func parseFloat(values map[string]string, fieldID, label string) (float64, error) {
	raw := values[fieldID]
	if raw == "" {
		return 0, nil
	}
	// Tolerate thousands separators and stray currency noise from
	// hand-edited sheets.
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "%")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", label, raw)
	}
	return value, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1", "on":
		return true
	default:
		return false
	}
}

// dedupKey identifies an item within one file: item code when present,
// otherwise the case-folded name.
func dedupKey(item *model.Item) string {
	if item.ItemCode != "" {
		return "code:" + strings.ToLower(item.ItemCode)
	}
	return "name:" + strings.ToLower(item.Name)
}
