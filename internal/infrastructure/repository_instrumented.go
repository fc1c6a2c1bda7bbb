package infrastructure

import (
	"context"

	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/telemetry"
)

// InstrumentedDownloadRepository wraps a SQLiteDownloadRepository with telemetry.
type InstrumentedDownloadRepository struct {
	repo      *SQLiteDownloadRepository
	telemetry *telemetry.Telemetry
}

// NewInstrumentedDownloadRepository creates a new instrumented download repository.
func NewInstrumentedDownloadRepository(repo *SQLiteDownloadRepository, tel *telemetry.Telemetry) *InstrumentedDownloadRepository {
	return &InstrumentedDownloadRepository{
		repo:      repo,
		telemetry: tel,
	}
}

// Create inserts a record with telemetry.
func (r *InstrumentedDownloadRepository) Create(record *domain.DownloadRecord) error {
	return r.telemetry.InstrumentDBOperation(context.Background(), "create", func(ctx context.Context) error {
		return r.repo.Create(record)
	})
}

// ExistsByIDHash looks up an id_hash with telemetry.
func (r *InstrumentedDownloadRepository) ExistsByIDHash(idHash string) (bool, error) {
	return r.exists("exists_by_id_hash", func() (bool, error) {
		return r.repo.ExistsByIDHash(idHash)
	})
}

// ExistsByAttributes looks up a filename match with telemetry.
func (r *InstrumentedDownloadRepository) ExistsByAttributes(query domain.AttributeQuery) (bool, error) {
	return r.exists("exists_by_attributes", func() (bool, error) {
		return r.repo.ExistsByAttributes(query)
	})
}

// ExistsByProvenance looks up a url/referrer pair with telemetry.
func (r *InstrumentedDownloadRepository) ExistsByProvenance(url, referrer string) (bool, error) {
	return r.exists("exists_by_provenance", func() (bool, error) {
		return r.repo.ExistsByProvenance(url, referrer)
	})
}

// DeleteByPartialHash removes a record with telemetry.
func (r *InstrumentedDownloadRepository) DeleteByPartialHash(partialHash string) (bool, error) {
	return r.exists("delete_by_partial_hash", func() (bool, error) {
		return r.repo.DeleteByPartialHash(partialHash)
	})
}

// FindAll retrieves all records with telemetry.
func (r *InstrumentedDownloadRepository) FindAll() ([]*domain.DownloadRecord, error) {
	var result []*domain.DownloadRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "find_all", func(ctx context.Context) error {
		result, err = r.repo.FindAll()

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

// GetStats aggregates a status with telemetry.
func (r *InstrumentedDownloadRepository) GetStats(status domain.DownloadStatus) (*domain.DownloadStats, error) {
	var result *domain.DownloadStats

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "get_stats", func(ctx context.Context) error {
		result, err = r.repo.GetStats(status)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

// Ping checks the underlying database.
func (r *InstrumentedDownloadRepository) Ping() error {
	return r.repo.Ping()
}

func (r *InstrumentedDownloadRepository) exists(operation string, fn func() (bool, error)) (bool, error) {
	var result bool

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), operation, func(ctx context.Context) error {
		result, err = fn()

		return err
	})

	if instrumentedErr != nil {
		return false, instrumentedErr
	}

	return result, nil
}
