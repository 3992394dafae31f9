package driving

import "context"

// MigrateService copies collections between vector store backends.
type MigrateService interface {
	// Migrate copies every point of a collection from the source store to
	// the target store, batch by batch, then verifies the point counts
	// match. The source is left untouched.
	Migrate(ctx context.Context, collection string) (*MigrateReport, error)
}

// MigrateReport summarises a completed migration.
type MigrateReport struct {
	// Collection is the migrated collection name.
	Collection string

	// Points is the number of points copied.
	Points int64

	// Batches is the number of scroll batches read from the source.
	Batches int
}
