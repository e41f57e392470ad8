package model

import "time"

// Item is one catalog entry as persisted by the import. The three unit
// tiers nest supplier -> wholesale -> retail, each with a conversion factor
// to the next tier.
type Item struct {
	ID                     int64     `json:"id" db:"id"`
	CompanyID              string    `json:"company_id" db:"company_id"`
	Name                   string    `json:"name" db:"name"`
	Description            string    `json:"description" db:"description"`
	Category               string    `json:"category" db:"category"`
	ItemCode               string    `json:"item_code" db:"item_code"`
	Barcode                string    `json:"barcode" db:"barcode"`
	SupplierName           string    `json:"supplier_name" db:"supplier_name"`
	SupplierUnit           string    `json:"supplier_unit" db:"supplier_unit"`
	WholesaleUnit          string    `json:"wholesale_unit" db:"wholesale_unit"`
	RetailUnit             string    `json:"retail_unit" db:"retail_unit"`
	ConversionToRetail     float64   `json:"conversion_to_retail" db:"conversion_to_retail"`
	ConversionToSupplier   float64   `json:"conversion_to_supplier" db:"conversion_to_supplier"`
	PurchasePrice          float64   `json:"purchase_price" db:"purchase_price"`
	WholesalePurchasePrice float64   `json:"wholesale_purchase_price" db:"wholesale_purchase_price"`
	StockQuantity          float64   `json:"stock_quantity" db:"stock_quantity"`
	MinimumStock           float64   `json:"minimum_stock" db:"minimum_stock"`
	TaxCategory            string    `json:"tax_category" db:"tax_category"`
	TaxRate                float64   `json:"tax_rate" db:"tax_rate"`
	BreakBulk              bool      `json:"break_bulk" db:"break_bulk"`
	TrackExpiry            bool      `json:"track_expiry" db:"track_expiry"`
	ControlledSubstance    bool      `json:"controlled_substance" db:"controlled_substance"`
	ColdChain              bool      `json:"cold_chain" db:"cold_chain"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

type Supplier struct {
	ID        int64     `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OpeningBalance records initial stock on hand and cost for an item at
// import time, the only channel for historical cost before any
// transactions exist.
type OpeningBalance struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	BranchID  string    `json:"branch_id" db:"branch_id"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	UnitCost  float64   `json:"unit_cost" db:"unit_cost"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
