package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure MigrateService implements the interface.
var _ driving.MigrateService = (*MigrateService)(nil)

// migrateBatchSize is how many points each scroll/upsert round moves.
const migrateBatchSize = 100

// MigrateService copies collections between vector store backends,
// typically from the embedded store to a networked one. The source is
// read-only throughout; the copy is verified by point count afterwards.
type MigrateService struct {
	source driven.VectorStore
	target driven.VectorStore
}

// NewMigrateService creates a migration service.
func NewMigrateService(source, target driven.VectorStore) *MigrateService {
	return &MigrateService{
		source: source,
		target: target,
	}
}

// Migrate copies every point of a collection to the target store.
func (s *MigrateService) Migrate(ctx context.Context, collection string) (*driving.MigrateReport, error) {
	logger.Section("Migrate " + collection)

	stats, err := s.source.Stats(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("source stats: %w", err)
	}

	if err := s.target.EnsureCollection(ctx, collection, stats.Dimensions); err != nil {
		return nil, fmt.Errorf("prepare target: %w", err)
	}

	report := &driving.MigrateReport{Collection: collection}
	for offset := 0; ; offset += migrateBatchSize {
		points, err := s.source.Scroll(ctx, collection, offset, migrateBatchSize)
		if err != nil {
			return nil, fmt.Errorf("scroll at offset %d: %w", offset, err)
		}
		if len(points) == 0 {
			break
		}

		if err := s.target.Upsert(ctx, collection, points); err != nil {
			return nil, fmt.Errorf("upsert batch at offset %d: %w", offset, err)
		}
		report.Points += int64(len(points))
		report.Batches++
		logger.Debug("Copied %d/%d points", report.Points, stats.Points)

		if len(points) < migrateBatchSize {
			break
		}
	}

	targetStats, err := s.target.Stats(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("verify target: %w", err)
	}
	if targetStats.Points != stats.Points {
		return nil, fmt.Errorf("%w: source has %d points, target has %d after migration",
			domain.ErrStorageFailed, stats.Points, targetStats.Points)
	}

	logger.Info("Migrated %s: %d points in %d batches", collection, report.Points, report.Batches)
	return report, nil
}
