package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/db"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/jobstore"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/logger"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

// Pipeline applies a decoded sheet to the catalog under a confirmed column
// mapping and aggregates ImportStats. Partial failure is a success path:
// rows that cannot be applied become row errors and processing continues.
type Pipeline struct {
	repo  db.Repository
	store jobstore.Store
	cfg   *config.Config
	log   zerolog.Logger
}

func NewPipeline(repo db.Repository, store jobstore.Store, cfg *config.Config) *Pipeline {
	return &Pipeline{
		repo:  repo,
		store: store,
		cfg:   cfg,
		log:   logger.Component("importer"),
	}
}

// Params carries the identifiers an import runs under.
type Params struct {
	JobID     string
	CompanyID string
	BranchID  string
	UserID    string
	Mapping   model.ColumnMapping
}

// Run processes every data row in order. When params.JobID is set, progress
// is written back to the job store after each chunk so pollers see
// processed/total advance.
func (p *Pipeline) Run(ctx context.Context, params Params, rawSheet *model.RawSheet) (*model.ImportStats, error) {
	if err := mapping.Validate(params.Mapping, rawSheet.Headers, mapping.DefaultFields()); err != nil {
		return nil, err
	}

	log := p.log.With().Str("job_id", params.JobID).Str("company_id", params.CompanyID).Logger()
	log.Info().Int("total_rows", len(rawSheet.Rows)).Msg("Starting import run")

	stats := &model.ImportStats{}
	seen := make(map[string]bool, len(rawSheet.Rows))
	createdSuppliers := make(map[string]bool)

	for i, row := range rawSheet.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Header occupies spreadsheet row 1.
		rowNum := i + 2

		values := mappedRow(rawSheet.Headers, row, params.Mapping)
		item, err := buildItem(params.CompanyID, values, rowNum)
		if err != nil {
			stats.Errors = append(stats.Errors, model.RowError{
				Row:     rowNum,
				Name:    values[mapping.FieldItemName],
				Message: err.Error(),
			})
			p.advance(ctx, params.JobID, i+1)
			continue
		}

		key := dedupKey(item)
		if seen[key] {
			stats.ItemsSkipped++
			p.advance(ctx, params.JobID, i+1)
			continue
		}
		seen[key] = true

		if err := p.ensureSupplier(ctx, params.CompanyID, item.SupplierName, createdSuppliers, stats); err != nil {
			log.Warn().Err(err).Int("row", rowNum).Msg("Supplier lookup failed")
		}

		if err := p.applyItem(ctx, params, item, stats); err != nil {
			stats.Errors = append(stats.Errors, model.RowError{
				Row:     rowNum,
				Name:    item.Name,
				Message: err.Error(),
			})
		}

		p.advance(ctx, params.JobID, i+1)
	}

	log.Info().
		Int("created", stats.ItemsCreated).
		Int("updated", stats.ItemsUpdated).
		Int("skipped", stats.ItemsSkipped).
		Int("suppliers", stats.SuppliersCreated).
		Int("opening_balances", stats.OpeningBalancesCreated).
		Int("errors", len(stats.Errors)).
		Msg("Import run finished")

	return stats, nil
}

func (p *Pipeline) applyItem(ctx context.Context, params Params, item *model.Item, stats *model.ImportStats) error {
	existing, err := p.repo.FindItemByCode(ctx, params.CompanyID, item.ItemCode)
	if err != nil {
		return fmt.Errorf("item lookup by code failed: %w", err)
	}
	if existing == nil {
		existing, err = p.repo.FindItemByName(ctx, params.CompanyID, item.Name)
		if err != nil {
			return fmt.Errorf("item lookup by name failed: %w", err)
		}
	}

	if existing != nil {
		item.ID = existing.ID
		if err := p.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("item update failed: %w", err)
		}
		stats.ItemsUpdated++
		return nil
	}

	itemID, err := p.repo.InsertItem(ctx, item)
	if err != nil {
		return fmt.Errorf("item insert failed: %w", err)
	}
	stats.ItemsCreated++

	if item.StockQuantity > 0 {
		balance := &model.OpeningBalance{
			ItemID:    itemID,
			BranchID:  params.BranchID,
			Quantity:  item.StockQuantity,
			UnitCost:  item.PurchasePrice,
			CreatedBy: params.UserID,
		}
		if err := p.repo.InsertOpeningBalance(ctx, balance); err != nil {
			return fmt.Errorf("opening balance insert failed: %w", err)
		}
		stats.OpeningBalancesCreated++
	}

	return nil
}

func (p *Pipeline) ensureSupplier(ctx context.Context, companyID, name string, created map[string]bool, stats *model.ImportStats) error {
	if name == "" || created[name] {
		return nil
	}

	exists, err := p.repo.SupplierExists(ctx, companyID, name)
	if err != nil {
		return err
	}
	created[name] = true
	if exists {
		return nil
	}

	if err := p.repo.InsertSupplier(ctx, &model.Supplier{CompanyID: companyID, Name: name}); err != nil {
		return err
	}
	stats.SuppliersCreated++
	return nil
}

func (p *Pipeline) advance(ctx context.Context, jobID string, processed int) {
	if jobID == "" || processed%p.cfg.Import.ChunkSize != 0 {
		return
	}
	if err := p.store.UpdateProgress(ctx, jobID, processed); err != nil {
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to update job progress")
	}
}
