package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Classifier decides whether a download request duplicates one already
// recorded, and records every request with its outcome.
type Classifier struct {
	repo      domain.DownloadRepository
	telemetry *telemetry.Telemetry
	logger    *zap.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(repo domain.DownloadRepository, tel *telemetry.Telemetry, logger *zap.Logger) *Classifier {
	return &Classifier{
		repo:      repo,
		telemetry: tel,
		logger:    logger,
	}
}

// Classify runs the duplicate tiers in order, stopping at the first match,
// then inserts record as cancelled (duplicate) or completed.
func (c *Classifier) Classify(ctx context.Context, record *domain.DownloadRecord) (domain.Decision, error) {
	tier, err := c.match(record)
	if err != nil {
		return domain.Decision{}, &domain.StoreError{Operation: "lookup", Err: err}
	}

	decision := domain.Decision{Duplicate: tier != domain.TierNone, Tier: tier}
	if decision.Duplicate {
		record.MarkCancelled()
	} else {
		record.MarkCompleted()
	}

	if err := c.repo.Create(record); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Decision{}, &domain.StoreError{Operation: "insert", Err: err}
		}
		// A tier-1 duplicate collides with the stored id_hash; the decision stands.
		c.logger.Debug("Duplicate record not inserted",
			zap.String("id_hash", domain.Deref(record.IDHash)),
			zap.Error(err))
	}

	c.telemetry.RecordDecision(decision.Duplicate, string(decision.Tier))
	c.telemetry.RecordFingerprint(domain.Deref(record.PartialHash) != "")
	c.logger.Info("Download classified",
		zap.String("url", record.URL),
		zap.String("filename", record.Filename),
		zap.Bool("duplicate", decision.Duplicate),
		zap.String("tier", string(decision.Tier)),
		zap.String("status", string(record.Status)))

	return decision, nil
}

func (c *Classifier) match(record *domain.DownloadRecord) (domain.MatchTier, error) {
	if record.IDHash != nil && *record.IDHash != "" {
		found, err := c.repo.ExistsByIDHash(*record.IDHash)
		if err != nil {
			return domain.TierNone, fmt.Errorf("id_hash lookup: %w", err)
		}
		if found {
			return domain.TierIDHash, nil
		}
	}

	if record.Filename != "" {
		// With no length, last-modified or etag this matches on the filename
		// alone, which can flag unrelated files that share a name.
		found, err := c.repo.ExistsByAttributes(domain.AttributeQuery{
			Filename:      record.Filename,
			ContentLength: record.ContentLength,
			LastModified:  record.LastModified,
			ETag:          record.ETag,
		})
		if err != nil {
			return domain.TierNone, fmt.Errorf("attribute lookup: %w", err)
		}
		if found {
			return domain.TierAttributes, nil
		}
	}

	if record.URL != "" && record.Referrer != "" {
		found, err := c.repo.ExistsByProvenance(record.URL, record.Referrer)
		if err != nil {
			return domain.TierNone, fmt.Errorf("provenance lookup: %w", err)
		}
		if found {
			return domain.TierProvenance, nil
		}
	}

	return domain.TierNone, nil
}

// Forget removes the record carrying partialHash. It reports whether one was
// removed.
func (c *Classifier) Forget(ctx context.Context, partialHash string) (bool, error) {
	deleted, err := c.repo.DeleteByPartialHash(partialHash)
	if err != nil {
		return false, &domain.StoreError{Operation: "delete", Err: err}
	}
	c.telemetry.RecordDeletion(deleted)
	c.logger.Info("Record deletion requested",
		zap.String("partial_hash", partialHash),
		zap.Bool("deleted", deleted))
	return deleted, nil
}
