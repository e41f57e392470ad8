package sheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

const exportSheetName = "Items"

// WriteTemplate writes a single-sheet workbook whose header row is the
// ordered list of field labels. The exact column text is a compatibility
// contract with users' saved templates; it must stay verbatim in sync with
// the field catalog the suggestion rules know how to map.
func WriteTemplate(w io.Writer, fields []model.FieldSpec) error {
	return writeWorkbook(w, fields, nil)
}

// WriteItems writes the catalog export: the template header row followed by
// one row per item.
func WriteItems(w io.Writer, fields []model.FieldSpec, items []model.Item) error {
	return writeWorkbook(w, fields, items)
}

func writeWorkbook(w io.Writer, fields []model.FieldSpec, items []model.Item) error {
	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(exportSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := make([]interface{}, len(fields))
	for i, field := range fields {
		header[i] = field.Label
	}
	if err := file.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for rowIdx, item := range items {
		row := make([]interface{}, len(fields))
		for colIdx, field := range fields {
			row[colIdx] = itemCell(item, field.ID)
		}
		cell := "A" + strconv.Itoa(rowIdx+2)
		if err := file.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func itemCell(item model.Item, fieldID string) interface{} {
	switch fieldID {
	case "item_name":
		return item.Name
	case "description":
		return item.Description
	case "category":
		return item.Category
	case "item_code":
		return item.ItemCode
	case "barcode":
		return item.Barcode
	case "supplier":
		return item.SupplierName
	case "supplier_unit":
		return item.SupplierUnit
	case "wholesale_unit":
		return item.WholesaleUnit
	case "retail_unit":
		return item.RetailUnit
	case "conversion_to_retail":
		return item.ConversionToRetail
	case "conversion_to_supplier":
		return item.ConversionToSupplier
	case "purchase_price":
		return item.PurchasePrice
	case "wholesale_purchase_price":
		return item.WholesalePurchasePrice
	case "stock_quantity":
		return item.StockQuantity
	case "minimum_stock":
		return item.MinimumStock
	case "tax_category":
		return item.TaxCategory
	case "tax_rate":
		return item.TaxRate
	case "break_bulk":
		return yesNo(item.BreakBulk)
	case "track_expiry":
		return yesNo(item.TrackExpiry)
	case "controlled_substance":
		return yesNo(item.ControlledSubstance)
	case "cold_chain":
		return yesNo(item.ColdChain)
	default:
		return ""
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
