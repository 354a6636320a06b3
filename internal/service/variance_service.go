package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/barhq/venuestock/internal/cache"
	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/engine"
	"github.com/barhq/venuestock/internal/repository"
	"github.com/barhq/venuestock/internal/storage"
	"github.com/rs/zerolog/log"
)

// VarianceService computes variance reports on demand. Reports are cached
// for a short TTL and can be exported as CSV to object storage.
type VarianceService struct {
	catalog repository.CatalogRepository
	stock   repository.StockTakeRepository
	cache   cache.VarianceCache
	exports storage.ObjectStorage
}

func NewVarianceService(
	catalog repository.CatalogRepository,
	stock repository.StockTakeRepository,
	varianceCache cache.VarianceCache,
	exports storage.ObjectStorage,
) *VarianceService {
	if varianceCache == nil {
		varianceCache = cache.NewNoopVarianceCache()
	}
	return &VarianceService{
		catalog: catalog,
		stock:   stock,
		cache:   varianceCache,
		exports: exports,
	}
}

// Report returns the venue's variance report, optionally filtered to one
// department. Cache failures degrade to recomputation.
func (s *VarianceService) Report(ctx context.Context, venueID, departmentID string) (*domain.VarianceReport, error) {
	if venueID == "" {
		return nil, ErrMissingVenue
	}

	scope := domain.VarianceScope{VenueID: venueID, DepartmentID: departmentID}
	if cached, hit, err := s.cache.GetReport(ctx, scope); err != nil {
		log.Warn().Err(err).Str("venue_id", venueID).Msg("variance cache read failed")
	} else if hit {
		return cached, nil
	}

	items, err := s.catalog.GetItems(ctx, venueID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	lastCounts, err := s.stock.GetLastCounts(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load counts: %w", err)
	}
	received, err := s.stock.GetReceived(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipts: %w", err)
	}
	sold, err := s.stock.GetSold(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	report := engine.ComputeVariance(venueID, items, lastCounts, received, sold, departmentID)

	if err := s.cache.SetReport(ctx, &report); err != nil {
		log.Warn().Err(err).Str("venue_id", venueID).Msg("variance cache write failed")
	}

	return &report, nil
}

// ExportCSV computes the report and uploads it as CSV, returning the object
// key.
func (s *VarianceService) ExportCSV(ctx context.Context, venueID, departmentID string) (string, error) {
	if s.exports == nil {
		return "", fmt.Errorf("export storage is not configured")
	}

	report, err := s.Report(ctx, venueID, departmentID)
	if err != nil {
		return "", err
	}

	payload, err := varianceCSV(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode variance csv: %w", err)
	}

	key := fmt.Sprintf("%s%s.csv", exportPrefix(venueID), time.Now().UTC().Format("20060102T150405Z"))
	if err := s.exports.UploadObject(ctx, key, payload, "text/csv"); err != nil {
		return "", fmt.Errorf("failed to upload variance csv: %w", err)
	}

	log.Info().
		Str("venue_id", venueID).
		Str("key", key).
		Int("shortages", len(report.Shortages)).
		Int("excesses", len(report.Excesses)).
		Msg("variance report exported")

	return key, nil
}

// ListExports returns the venue's previously exported reports.
func (s *VarianceService) ListExports(ctx context.Context, venueID string) ([]storage.ObjectInfo, error) {
	if s.exports == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}
	if venueID == "" {
		return nil, ErrMissingVenue
	}

	exports, err := s.exports.ListObjects(ctx, exportPrefix(venueID))
	if err != nil {
		return nil, fmt.Errorf("failed to list variance exports: %w", err)
	}
	return exports, nil
}

func exportPrefix(venueID string) string {
	return fmt.Sprintf("variance/%s/", venueID)
}

func varianceCSV(report *domain.VarianceReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Item ID", "Name", "Class", "Theoretical On Hand", "Delta vs Par", "Value Impact"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	writeRows := func(class string, rows []domain.VarianceRow) error {
		for _, row := range rows {
			record := []string{
				row.ItemID,
				row.Name,
				class,
				strconv.FormatFloat(row.TheoreticalOnHand, 'f', -1, 64),
				strconv.FormatFloat(row.DeltaVsPar, 'f', -1, 64),
				strconv.FormatFloat(row.ValueImpact, 'f', 2, 64),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRows("shortage", report.Shortages); err != nil {
		return nil, err
	}
	if err := writeRows("excess", report.Excesses); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
