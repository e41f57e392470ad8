package client

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

// Summarize renders the one-line outcome message for a completed import.
// A run that created nothing and errored nothing, over a nonzero number of
// rows, is reported as the all-duplicates case rather than as a failure.
func Summarize(stats *model.ImportStats, totalRows int) string {
	if stats == nil {
		return "Import finished, but the server returned no statistics"
	}

	if totalRows > 0 && stats.ItemsCreated == 0 && len(stats.Errors) == 0 && stats.ItemsUpdated == 0 {
		return fmt.Sprintf("No new items were imported: all %d rows were duplicates of existing items", totalRows)
	}

	summary := fmt.Sprintf("Import finished: %d items created, %d updated, %d skipped",
		stats.ItemsCreated, stats.ItemsUpdated, stats.ItemsSkipped)
	if stats.OpeningBalancesCreated > 0 {
		summary += fmt.Sprintf(", %d opening balances", stats.OpeningBalancesCreated)
	}
	if stats.SuppliersCreated > 0 {
		summary += fmt.Sprintf(", %d suppliers created", stats.SuppliersCreated)
	}
	if len(stats.Errors) > 0 {
		summary += fmt.Sprintf(", %d rows with errors", len(stats.Errors))
	}
	return summary
}

// LogRowErrors writes the per-row error detail to the log; the summary
// message only carries the count.
func LogRowErrors(log zerolog.Logger, stats *model.ImportStats) {
	if stats == nil {
		return
	}
	for _, rowErr := range stats.Errors {
		log.Warn().
			Int("row", rowErr.Row).
			Str("name", rowErr.Name).
			Str("message", rowErr.Message).
			Msg("Row could not be imported")
	}
}
