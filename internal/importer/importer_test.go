package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

type fakeRepository struct {
	items           map[string]*model.Item // keyed by lowercased name
	suppliers       map[string]bool
	nextID          int64
	inserted        []model.Item
	updated         []model.Item
	openingBalances []model.OpeningBalance
	insertItemErr   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items:     make(map[string]*model.Item),
		suppliers: make(map[string]bool),
	}
}

func (r *fakeRepository) FindItemByCode(_ context.Context, _, itemCode string) (*model.Item, error) {
	if itemCode == "" {
		return nil, nil
	}
	for _, item := range r.items {
		if item.ItemCode == itemCode {
			return item, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) FindItemByName(_ context.Context, _, name string) (*model.Item, error) {
	if item, ok := r.items[strings.ToLower(name)]; ok {
		return item, nil
	}
	return nil, nil
}

func (r *fakeRepository) InsertItem(_ context.Context, item *model.Item) (int64, error) {
	if r.insertItemErr != nil {
		return 0, r.insertItemErr
	}
	r.nextID++
	stored := *item
	stored.ID = r.nextID
	r.items[strings.ToLower(item.Name)] = &stored
	r.inserted = append(r.inserted, stored)
	return r.nextID, nil
}

func (r *fakeRepository) UpdateItem(_ context.Context, item *model.Item) error {
	r.updated = append(r.updated, *item)
	return nil
}

func (r *fakeRepository) ListItems(_ context.Context, _ string) ([]model.Item, error) {
	return nil, nil
}

func (r *fakeRepository) SupplierExists(_ context.Context, _, name string) (bool, error) {
	return r.suppliers[name], nil
}

func (r *fakeRepository) InsertSupplier(_ context.Context, supplier *model.Supplier) error {
	r.suppliers[supplier.Name] = true
	return nil
}

func (r *fakeRepository) InsertOpeningBalance(_ context.Context, balance *model.OpeningBalance) error {
	r.openingBalances = append(r.openingBalances, *balance)
	return nil
}

type fakeJobStore struct {
	progress []int
}

func (s *fakeJobStore) Create(context.Context, *model.ImportJob) error { return nil }
func (s *fakeJobStore) Get(context.Context, string) (*model.ImportJob, error) {
	return nil, errors.New("not implemented")
}
func (s *fakeJobStore) MarkProcessing(context.Context, string, int) error { return nil }
func (s *fakeJobStore) UpdateProgress(_ context.Context, _ string, processedRows int) error {
	s.progress = append(s.progress, processedRows)
	return nil
}
func (s *fakeJobStore) Complete(context.Context, string, *model.ImportStats) error { return nil }
func (s *fakeJobStore) Fail(context.Context, string, string) error { return nil }
func (s *fakeJobStore) AcquireFileLock(context.Context, string, string, string) (string, bool, error) {
	return "", true, nil
}
func (s *fakeJobStore) ReleaseFileLock(context.Context, string, string) error { return nil }

func testConfig(chunkSize int) *config.Config {
	cfg := &config.Config{}
	cfg.Import.ChunkSize = chunkSize
	return cfg
}

func testParams() Params {
	return Params{
		JobID:     "job-1",
		CompanyID: "comp-1",
		BranchID:  "branch-1",
		UserID:    "user-1",
		Mapping: model.ColumnMapping{
			"Item name*": mapping.FieldItemName,
			"Item code":  mapping.FieldItemCode,
			"Supplier":   mapping.FieldSupplier,
			"Stock":      mapping.FieldStockQuantity,
			"Price":      mapping.FieldPurchasePrice,
		},
	}
}

func sheetOf(headers []string, rows ...map[string]string) *model.RawSheet {
	return &model.RawSheet{Headers: headers, Rows: rows}
}

var testHeaders = []string{"Item name*", "Item code", "Supplier", "Stock", "Price"}

func TestRunCreatesItemsWithOpeningBalances(t *testing.T) {
	repo := newFakeRepository()
	store := &fakeJobStore{}
	pipeline := NewPipeline(repo, store, testConfig(100))

	rawSheet := sheetOf(testHeaders,
		map[string]string{"Item name*": "Amoxicillin", "Item code": "AMX", "Supplier": "PharmaCo", "Stock": "40", "Price": "1,200.50"},
		map[string]string{"Item name*": "Paracetamol", "Item code": "PCM", "Supplier": "PharmaCo", "Stock": "0", "Price": "300"},
	)

	stats, err := pipeline.Run(context.Background(), testParams(), rawSheet)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ItemsCreated)
	assert.Equal(t, 0, stats.ItemsUpdated)
	assert.Equal(t, 0, stats.ItemsSkipped)
	assert.Equal(t, 1, stats.SuppliersCreated, "one supplier shared by both rows")
	assert.Equal(t, 1, stats.OpeningBalancesCreated, "zero-stock rows get no opening balance")
	assert.Empty(t, stats.Errors)

	require.Len(t, repo.openingBalances, 1)
	balance := repo.openingBalances[0]
	assert.Equal(t, "branch-1", balance.BranchID)
	assert.Equal(t, "user-1", balance.CreatedBy)
	assert.Equal(t, 40.0, balance.Quantity)
	assert.Equal(t, 1200.5, balance.UnitCost)
}

func TestRunUpdatesExistingItems(t *testing.T) {
	repo := newFakeRepository()
	repo.items["amoxicillin"] = &model.Item{ID: 7, Name: "Amoxicillin", ItemCode: "AMX"}
	pipeline := NewPipeline(repo, &fakeJobStore{}, testConfig(100))

	rawSheet := sheetOf(testHeaders,
		map[string]string{"Item name*": "Amoxicillin", "Item code": "AMX", "Stock": "15"},
	)

	stats, err := pipeline.Run(context.Background(), testParams(), rawSheet)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ItemsCreated)
	assert.Equal(t, 1, stats.ItemsUpdated)
	assert.Equal(t, 0, stats.OpeningBalancesCreated, "updates never create opening balances")
	require.Len(t, repo.updated, 1)
	assert.Equal(t, int64(7), repo.updated[0].ID, "update targets the existing row")
}

func TestRunSkipsIntraFileDuplicates(t *testing.T) {
	repo := newFakeRepository()
	pipeline := NewPipeline(repo, &fakeJobStore{}, testConfig(100))

	rawSheet := sheetOf(testHeaders,
		map[string]string{"Item name*": "Amoxicillin", "Item code": "AMX"},
		map[string]string{"Item name*": "Amoxicillin Duplicate", "Item code": "amx"}, // same code, case-folded
		map[string]string{"Item name*": "AMOXICILLIN"}, // no code, but first row matches by code only
	)

	stats, err := pipeline.Run(context.Background(), testParams(), rawSheet)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ItemsSkipped)
	// Third row dedupes by name, which the first row (keyed by code) did not
	// claim, so it resolves against the database and updates row one.
	assert.Equal(t, 1, stats.ItemsCreated)
	assert.Equal(t, 1, stats.ItemsUpdated)
}

func TestRunRecordsRowErrorsAndContinues(t *testing.T) {
	repo := newFakeRepository()
	pipeline := NewPipeline(repo, &fakeJobStore{}, testConfig(100))

	rawSheet := sheetOf(testHeaders,
		map[string]string{"Item name*": "", "Item code": "X1"},
		map[string]string{"Item name*": "Good", "Price": "not-a-number"},
		map[string]string{"Item name*": "Fine", "Price": "10"},
	)

	stats, err := pipeline.Run(context.Background(), testParams(), rawSheet)
	require.NoError(t, err, "row failures never fail the run")

	assert.Equal(t, 1, stats.ItemsCreated)
	require.Len(t, stats.Errors, 2)
	assert.Equal(t, 2, stats.Errors[0].Row, "header row is row 1")
	assert.Contains(t, stats.Errors[0].Message, "item name is empty")
	assert.Equal(t, 3, stats.Errors[1].Row)
	assert.Contains(t, stats.Errors[1].Message, "purchase price")
}

func TestRunInsertFailureBecomesRowError(t *testing.T) {
	repo := newFakeRepository()
	repo.insertItemErr = fmt.Errorf("deadlock")
	pipeline := NewPipeline(repo, &fakeJobStore{}, testConfig(100))

	rawSheet := sheetOf(testHeaders,
		map[string]string{"Item name*": "Amoxicillin"},
	)

	stats, err := pipeline.Run(context.Background(), testParams(), rawSheet)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ItemsCreated)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "Amoxicillin", stats.Errors[0].Name)
}

func TestRunReportsProgressPerChunk(t *testing.T) {
	repo := newFakeRepository()
	store := &fakeJobStore{}
	pipeline := NewPipeline(repo, store, testConfig(2))

	rows := make([]map[string]string, 5)
	for i := range rows {
		rows[i] = map[string]string{"Item name*": fmt.Sprintf("Item %d", i)}
	}

	_, err := pipeline.Run(context.Background(), testParams(), sheetOf(testHeaders, rows...))
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4}, store.progress, "progress lands on chunk boundaries only")
}

func TestRunRejectsMappingWithoutItemName(t *testing.T) {
	pipeline := NewPipeline(newFakeRepository(), &fakeJobStore{}, testConfig(100))

	params := testParams()
	params.Mapping = model.ColumnMapping{"Price": mapping.FieldPurchasePrice}

	_, err := pipeline.Run(context.Background(), params, sheetOf(testHeaders,
		map[string]string{"Item name*": "Amoxicillin"},
	))
	require.Error(t, err)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	pipeline := NewPipeline(newFakeRepository(), &fakeJobStore{}, testConfig(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, testParams(), sheetOf(testHeaders,
		map[string]string{"Item name*": "Amoxicillin"},
	))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildItemParsesValues(t *testing.T) {
	values := map[string]string{
		mapping.FieldItemName:      "Ibuprofen",
		mapping.FieldPurchasePrice: "1,500",
		mapping.FieldTaxRate:       "16%",
		mapping.FieldTrackExpiry:   "Yes",
		mapping.FieldBreakBulk:     "no",
		mapping.FieldColdChain:     "1",
	}

	item, err := buildItem("comp-1", values, 2)
	require.NoError(t, err)

	assert.Equal(t, 1500.0, item.PurchasePrice)
	assert.Equal(t, 16.0, item.TaxRate)
	assert.True(t, item.TrackExpiry)
	assert.False(t, item.BreakBulk)
	assert.True(t, item.ColdChain)
}

func TestMappedRowLastHeaderWins(t *testing.T) {
	headers := []string{"Name", "Name.1"}
	colMapping := model.ColumnMapping{
		"Name":   mapping.FieldItemName,
		"Name.1": mapping.FieldItemName,
	}
	row := map[string]string{"Name": "First", "Name.1": "Second"}

	values := mappedRow(headers, row, colMapping)
	assert.Equal(t, "Second", values[mapping.FieldItemName])
}
