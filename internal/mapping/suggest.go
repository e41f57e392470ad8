package mapping

import (
	"regexp"
	"strings"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

var separatorRuns = regexp.MustCompile(`[\s_*-]+`)

// Normalize lowercases a header, collapses runs of whitespace, underscores,
// hyphens and asterisks into a single space, and trims. The same
// normalization is applied to field labels in the fallback match, so the two
// sides compare like for like.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = separatorRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// rule is one entry of the ordered suggestion table. First match wins, so
// specific rules sit above generic ones: "VAT Description" must resolve as a
// tax column before the description rule can see it, and "Supplier Unit"
// must never fall through to the plain supplier rule.
type rule struct {
	fieldID string
	match   func(h string) bool
}

func has(h string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(h, sub) {
			return true
		}
	}
	return false
}

var suggestionRules = []rule{
	{FieldTaxRate, func(h string) bool {
		return has(h, "vat", "tax") && has(h, "rate", "percent", "%")
	}},
	{FieldTaxCategory, func(h string) bool {
		return has(h, "vat", "tax")
	}},
	{FieldSupplier, func(h string) bool {
		return has(h, "supplier", "vendor") && !has(h, "unit", "price", "cost", "per")
	}},
	{FieldItemName, func(h string) bool {
		if has(h, "item name", "product name", "drug name") || h == "name" {
			return true
		}
		return has(h, "name") && !has(h, "generic", "supplier", "brand", "unit")
	}},
	{FieldDescription, func(h string) bool {
		return has(h, "description", "generic")
	}},
	{FieldCategory, func(h string) bool {
		return has(h, "category", "item group")
	}},
	{FieldItemCode, func(h string) bool {
		return has(h, "code", "sku") && !has(h, "bar")
	}},
	{FieldBarcode, func(h string) bool {
		return has(h, "barcode", "bar code", "ean", "upc")
	}},
	// Unit tier names; guarded so "... Unit Price" and "... Units per ..."
	// columns never claim them.
	{FieldSupplierUnit, func(h string) bool {
		return has(h, "supplier unit", "buying unit", "purchase unit") && !has(h, "price", "cost", "per")
	}},
	{FieldWholesaleUnit, func(h string) bool {
		return has(h, "wholesale unit") && !has(h, "price", "cost", "per")
	}},
	{FieldRetailUnit, func(h string) bool {
		return has(h, "retail unit", "selling unit", "dispensing unit") && !has(h, "price", "cost", "per")
	}},
	// Legacy aliases from older export templates: "base unit" was the
	// purchasing tier and "secondary unit" the dispensing tier.
	{FieldSupplierUnit, func(h string) bool {
		return has(h, "base unit") && !has(h, "price", "cost", "per")
	}},
	{FieldRetailUnit, func(h string) bool {
		return has(h, "secondary unit") && !has(h, "price", "cost", "per")
	}},
	{FieldConversionToRetail, func(h string) bool {
		return has(h, "pack size", "retail units per", "conversion to retail", "units per pack")
	}},
	{FieldConversionToSupplier, func(h string) bool {
		return has(h, "wholesale units per", "units per supplier", "conversion to supplier")
	}},
	{FieldWholesalePurchasePrice, func(h string) bool {
		return has(h, "wholesale") && has(h, "price", "cost")
	}},
	{FieldPurchasePrice, func(h string) bool {
		return has(h, "price", "cost", "purchase")
	}},
	{FieldMinimumStock, func(h string) bool {
		return has(h, "minimum", "min stock", "min qty", "reorder")
	}},
	{FieldStockQuantity, func(h string) bool {
		return has(h, "stock", "quantity", "qty", "on hand", "opening balance")
	}},
	{FieldBreakBulk, func(h string) bool {
		return has(h, "break bulk", "breakbulk", "loose sale")
	}},
	{FieldTrackExpiry, func(h string) bool {
		return has(h, "expiry", "expiration", "expires")
	}},
	{FieldControlledSubstance, func(h string) bool {
		return has(h, "controlled", "narcotic", "schedule")
	}},
	{FieldColdChain, func(h string) bool {
		return has(h, "cold chain", "refriger", "fridge")
	}},
}

// Suggest maps a spreadsheet header to a best-guess field id, or "" when
// nothing matches. The keyword table runs first; if no rule fires, the
// normalized header is compared against each known field's normalized label,
// matching on equality or substring containment in either direction.
func Suggest(header string, knownFields []model.FieldSpec) string {
	h := Normalize(header)
	if h == "" {
		return ""
	}

	ids := KnownFieldIDs(knownFields)
	for _, r := range suggestionRules {
		if !ids[r.fieldID] {
			continue
		}
		if r.match(h) {
			return r.fieldID
		}
	}

	for _, field := range knownFields {
		label := Normalize(field.Label)
		if label == "" {
			continue
		}
		if h == label || strings.Contains(h, label) || strings.Contains(label, h) {
			return field.ID
		}
	}

	return ""
}
