package mapping

import "github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"

// Field ids are the stable keys the backend accepts. The import refuses to
// run without at least one header mapped to FieldItemName.
const (
	FieldItemName               = "item_name"
	FieldDescription            = "description"
	FieldCategory               = "category"
	FieldItemCode               = "item_code"
	FieldBarcode                = "barcode"
	FieldSupplier               = "supplier"
	FieldSupplierUnit           = "supplier_unit"
	FieldWholesaleUnit          = "wholesale_unit"
	FieldRetailUnit             = "retail_unit"
	FieldConversionToRetail     = "conversion_to_retail"
	FieldConversionToSupplier   = "conversion_to_supplier"
	FieldPurchasePrice          = "purchase_price"
	FieldWholesalePurchasePrice = "wholesale_purchase_price"
	FieldStockQuantity          = "stock_quantity"
	FieldMinimumStock           = "minimum_stock"
	FieldTaxCategory            = "tax_category"
	FieldTaxRate                = "tax_rate"
	FieldBreakBulk              = "break_bulk"
	FieldTrackExpiry            = "track_expiry"
	FieldControlledSubstance    = "controlled_substance"
	FieldColdChain              = "cold_chain"
)

// defaultFields is the hardcoded fallback used when the expected-fields
// endpoint cannot be reached. The labels double as the export template
// header row, so their exact text is a compatibility contract.
var defaultFields = []model.FieldSpec{
	{ID: FieldItemName, Label: "Item name*", Required: true},
	{ID: FieldDescription, Label: "Description / Generic name"},
	{ID: FieldCategory, Label: "Category"},
	{ID: FieldItemCode, Label: "Item code"},
	{ID: FieldBarcode, Label: "Barcode"},
	{ID: FieldSupplier, Label: "Supplier"},
	{ID: FieldSupplierUnit, Label: "Supplier Unit"},
	{ID: FieldWholesaleUnit, Label: "Wholesale Unit"},
	{ID: FieldRetailUnit, Label: "Retail Unit"},
	{ID: FieldConversionToRetail, Label: "Retail Units per Wholesale Unit"},
	{ID: FieldConversionToSupplier, Label: "Wholesale Units per Supplier Unit"},
	{ID: FieldPurchasePrice, Label: "Purchase Price"},
	{ID: FieldWholesalePurchasePrice, Label: "Wholesale Purchase Price"},
	{ID: FieldStockQuantity, Label: "Current Stock Quantity"},
	{ID: FieldMinimumStock, Label: "Minimum Stock Quantity"},
	{ID: FieldTaxCategory, Label: "VAT Category"},
	{ID: FieldTaxRate, Label: "VAT Rate (%)"},
	{ID: FieldBreakBulk, Label: "Break Bulk (yes/no)"},
	{ID: FieldTrackExpiry, Label: "Track Expiry (yes/no)"},
	{ID: FieldControlledSubstance, Label: "Controlled Substance (yes/no)"},
	{ID: FieldColdChain, Label: "Cold Chain (yes/no)"},
}

// DefaultFields returns a copy of the fallback field catalog.
func DefaultFields() []model.FieldSpec {
	fields := make([]model.FieldSpec, len(defaultFields))
	copy(fields, defaultFields)
	return fields
}

// KnownFieldIDs returns the set of field ids in the given catalog.
func KnownFieldIDs(fields []model.FieldSpec) map[string]bool {
	ids := make(map[string]bool, len(fields))
	for _, field := range fields {
		ids[field.ID] = true
	}
	return ids
}
