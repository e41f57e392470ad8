package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Item name*", "item name"},
		{"  Current__Stock--Quantity ", "current stock quantity"},
		{"VAT Rate (%)", "vat rate (%)"},
		{"base_unit", "base unit"},
		{"", ""},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestSuggest(t *testing.T) {
	fields := DefaultFields()

	tests := []struct {
		header string
		want   string
	}{
		{"Item name*", FieldItemName},
		{"Product Name", FieldItemName},
		{"Name", FieldItemName},
		{"Generic Name", FieldDescription},
		{"Description", FieldDescription},
		{"Category", FieldCategory},
		{"Item code", FieldItemCode},
		{"SKU", FieldItemCode},
		{"Barcode", FieldBarcode}, // not item_code despite containing "code"
		{"EAN", FieldBarcode},
		{"Supplier", FieldSupplier},
		{"Vendor Name", FieldSupplier},
		{"Supplier Unit", FieldSupplierUnit}, // not the plain supplier field
		{"Wholesale Unit", FieldWholesaleUnit},
		{"Retail Unit", FieldRetailUnit},
		{"Dispensing Unit", FieldRetailUnit},
		{"Base Unit (x)", FieldSupplierUnit},   // legacy template alias
		{"Secondary Unit", FieldRetailUnit},    // legacy template alias
		{"Pack Size", FieldConversionToRetail},
		{"Retail Units per Wholesale Unit", FieldConversionToRetail},
		{"Wholesale Units per Supplier Unit", FieldConversionToSupplier},
		{"Purchase Price", FieldPurchasePrice},
		{"Unit Cost", FieldPurchasePrice},
		{"Wholesale Purchase Price", FieldWholesalePurchasePrice},
		{"Current Stock Quantity", FieldStockQuantity},
		{"Qty on Hand", FieldStockQuantity},
		{"Opening Balance", FieldStockQuantity},
		{"Minimum Stock Quantity", FieldMinimumStock},
		{"Reorder Level", FieldMinimumStock},
		{"VAT Category", FieldTaxCategory},
		{"VAT Description", FieldTaxCategory}, // tax columns outrank description
		{"Tax Rate", FieldTaxRate},
		{"VAT Rate (%)", FieldTaxRate},
		{"Break Bulk (yes/no)", FieldBreakBulk},
		{"Track Expiry (yes/no)", FieldTrackExpiry},
		{"Expiry Tracking", FieldTrackExpiry},
		{"Controlled Substance (yes/no)", FieldControlledSubstance},
		{"Cold Chain (yes/no)", FieldColdChain},
		{"Refrigerated", FieldColdChain},
		{"Unnamed: 3", ""},
		{"Notes", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.header, fields))
		})
	}
}

func TestSuggestRespectsFieldCatalog(t *testing.T) {
	// When the server's catalog lacks a field, the rule for it is skipped and
	// the header falls through to later rules or to no match.
	narrow := DefaultFields()[:1] // item_name only

	assert.Equal(t, "", Suggest("VAT Rate (%)", narrow))
	assert.Equal(t, FieldItemName, Suggest("Item name*", narrow))
}

func TestSuggestLabelFallback(t *testing.T) {
	fields := DefaultFields()

	// No keyword rule fires on "Break" alone, but the normalized header is
	// contained in the break_bulk catalog label.
	assert.Equal(t, FieldBreakBulk, Suggest("Break", fields))
}
