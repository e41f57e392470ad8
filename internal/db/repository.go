package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

// Repository is the catalog persistence the import pipeline writes through.
type Repository interface {
	FindItemByCode(ctx context.Context, companyID, itemCode string) (*model.Item, error)
	FindItemByName(ctx context.Context, companyID, name string) (*model.Item, error)
	InsertItem(ctx context.Context, item *model.Item) (int64, error)
	UpdateItem(ctx context.Context, item *model.Item) error
	ListItems(ctx context.Context, companyID string) ([]model.Item, error)
	SupplierExists(ctx context.Context, companyID, name string) (bool, error)
	InsertSupplier(ctx context.Context, supplier *model.Supplier) error
	InsertOpeningBalance(ctx context.Context, balance *model.OpeningBalance) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const itemColumns = `id, company_id, name, description, category, item_code, barcode, supplier_name,
	supplier_unit, wholesale_unit, retail_unit, conversion_to_retail, conversion_to_supplier,
	purchase_price, wholesale_purchase_price, stock_quantity, minimum_stock,
	tax_category, tax_rate, break_bulk, track_expiry, controlled_substance, cold_chain,
	created_at, updated_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID, &item.CompanyID, &item.Name, &item.Description, &item.Category,
		&item.ItemCode, &item.Barcode, &item.SupplierName,
		&item.SupplierUnit, &item.WholesaleUnit, &item.RetailUnit,
		&item.ConversionToRetail, &item.ConversionToSupplier,
		&item.PurchasePrice, &item.WholesalePurchasePrice,
		&item.StockQuantity, &item.MinimumStock,
		&item.TaxCategory, &item.TaxRate,
		&item.BreakBulk, &item.TrackExpiry, &item.ControlledSubstance, &item.ColdChain,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByCode(ctx context.Context, companyID, itemCode string) (*model.Item, error) {
	if itemCode == "" {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE company_id = ? AND item_code = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, companyID, itemCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (r *repository) FindItemByName(ctx context.Context, companyID, name string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE company_id = ? AND name = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, companyID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (r *repository) InsertItem(ctx context.Context, item *model.Item) (int64, error) {
	query := `INSERT INTO items (company_id, name, description, category, item_code, barcode, supplier_name,
		supplier_unit, wholesale_unit, retail_unit, conversion_to_retail, conversion_to_supplier,
		purchase_price, wholesale_purchase_price, stock_quantity, minimum_stock,
		tax_category, tax_rate, break_bulk, track_expiry, controlled_substance, cold_chain,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.ExecContext(ctx, query,
		item.CompanyID, item.Name, item.Description, item.Category, item.ItemCode, item.Barcode,
		item.SupplierName, item.SupplierUnit, item.WholesaleUnit, item.RetailUnit,
		item.ConversionToRetail, item.ConversionToSupplier,
		item.PurchasePrice, item.WholesalePurchasePrice, item.StockQuantity, item.MinimumStock,
		item.TaxCategory, item.TaxRate,
		item.BreakBulk, item.TrackExpiry, item.ControlledSubstance, item.ColdChain,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *repository) UpdateItem(ctx context.Context, item *model.Item) error {
	query := `UPDATE items SET name = ?, description = ?, category = ?, item_code = ?, barcode = ?,
		supplier_name = ?, supplier_unit = ?, wholesale_unit = ?, retail_unit = ?,
		conversion_to_retail = ?, conversion_to_supplier = ?,
		purchase_price = ?, wholesale_purchase_price = ?, stock_quantity = ?, minimum_stock = ?,
		tax_category = ?, tax_rate = ?, break_bulk = ?, track_expiry = ?,
		controlled_substance = ?, cold_chain = ?, updated_at = NOW()
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		item.Name, item.Description, item.Category, item.ItemCode, item.Barcode,
		item.SupplierName, item.SupplierUnit, item.WholesaleUnit, item.RetailUnit,
		item.ConversionToRetail, item.ConversionToSupplier,
		item.PurchasePrice, item.WholesalePurchasePrice, item.StockQuantity, item.MinimumStock,
		item.TaxCategory, item.TaxRate,
		item.BreakBulk, item.TrackExpiry, item.ControlledSubstance, item.ColdChain,
		item.ID,
	)
	return err
}

func (r *repository) ListItems(ctx context.Context, companyID string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE company_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *repository) SupplierExists(ctx context.Context, companyID, name string) (bool, error) {
	query := `SELECT COUNT(*) FROM suppliers WHERE company_id = ? AND name = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, companyID, name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) InsertSupplier(ctx context.Context, supplier *model.Supplier) error {
	query := `INSERT INTO suppliers (company_id, name, created_at) VALUES (?, ?, NOW())`
	_, err := r.db.ExecContext(ctx, query, supplier.CompanyID, supplier.Name)
	return err
}

func (r *repository) InsertOpeningBalance(ctx context.Context, balance *model.OpeningBalance) error {
	query := `INSERT INTO opening_balances (item_id, branch_id, quantity, unit_cost, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`
	_, err := r.db.ExecContext(ctx, query,
		balance.ItemID, balance.BranchID, balance.Quantity, balance.UnitCost, balance.CreatedBy)
	return err
}
