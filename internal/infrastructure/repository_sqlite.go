package infrastructure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/reduce-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteDownloadRepository implements DownloadRepository using SQLite
type SQLiteDownloadRepository struct {
	db *gorm.DB
}

// NewSQLiteDownloadRepository creates a new SQLite repository
func NewSQLiteDownloadRepository(dbPath string) (*SQLiteDownloadRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// No pooling: every operation opens and releases its own connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(0)

	if err := db.AutoMigrate(&domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteDownloadRepository{db: db}, nil
}

// Create inserts a new record
func (r *SQLiteDownloadRepository) Create(record *domain.DownloadRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", gorm.ErrDuplicatedKey, err)
		}
		return err
	}
	return nil
}

// ExistsByIDHash reports whether a record with the given id_hash exists
func (r *SQLiteDownloadRepository) ExistsByIDHash(idHash string) (bool, error) {
	return r.exists(r.db.Where("id_hash = ?", idHash))
}

// ExistsByAttributes reports whether a record matches the filename and every
// non-nil attribute of the query
func (r *SQLiteDownloadRepository) ExistsByAttributes(query domain.AttributeQuery) (bool, error) {
	tx := r.db.Where("filename = ?", query.Filename)
	if query.ContentLength != nil {
		tx = tx.Where("content_length = ?", *query.ContentLength)
	}
	if query.LastModified != nil {
		tx = tx.Where("last_modified = ?", *query.LastModified)
	}
	if query.ETag != nil {
		tx = tx.Where("etag = ?", *query.ETag)
	}
	return r.exists(tx)
}

// ExistsByProvenance reports whether a record with the exact url/referrer pair exists
func (r *SQLiteDownloadRepository) ExistsByProvenance(url, referrer string) (bool, error) {
	return r.exists(r.db.Where("url = ? AND referrer = ?", url, referrer))
}

func (r *SQLiteDownloadRepository) exists(tx *gorm.DB) (bool, error) {
	var count int64
	if err := tx.Model(&domain.DownloadRecord{}).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByPartialHash removes a single record carrying the fingerprint. The
// accepted (completed) record is preferred, newest first.
func (r *SQLiteDownloadRepository) DeleteByPartialHash(partialHash string) (bool, error) {
	var record domain.DownloadRecord
	err := r.db.Where("partial_hash = ?", partialHash).
		Order(fmt.Sprintf("CASE WHEN status = '%s' THEN 0 ELSE 1 END", domain.StatusCompleted)).
		Order("inserted_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	result := r.db.Delete(&domain.DownloadRecord{}, "uuid = ?", record.UUID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindAll returns every record, newest first
func (r *SQLiteDownloadRepository) FindAll() ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := r.db.Order("inserted_at DESC").Find(&records).Error
	return records, err
}

// GetStats returns count and summed content length for a status
func (r *SQLiteDownloadRepository) GetStats(status domain.DownloadStatus) (*domain.DownloadStats, error) {
	row := struct {
		Count int64
		Total int64
	}{}

	if err := r.db.Model(&domain.DownloadRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(content_length), 0) AS total").
		Where("status = ?", status).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	return &domain.DownloadStats{
		Status:             status,
		Count:              row.Count,
		TotalContentLength: row.Total,
	}, nil
}

// Ping checks that the database can be reached
func (r *SQLiteDownloadRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (r *SQLiteDownloadRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation matches both the translated gorm error and the raw driver message
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
