package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"sheet-sync-service/internal/models"
	"gorm.io/gorm"
)

// SyncLogRepository defines the interface for sync audit rows. A row is
// created when a sync starts and finished exactly once when it ends.
type SyncLogRepository interface {
	Create(ctx context.Context, log *models.SyncLog) error
	Finish(ctx context.Context, id uuid.UUID, status models.SyncStatus, added, updated, failed int, errs []string) error
	List(ctx context.Context, limit int) ([]models.SyncLog, error)
}

type syncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) Create(ctx context.Context, log *models.SyncLog) error {
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now()
	}
	if log.Status == "" {
		log.Status = models.SyncStatusRunning
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) Finish(ctx context.Context, id uuid.UUID, status models.SyncStatus, added, updated, failed int, errs []string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.SyncLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"records_added":   added,
			"records_updated": updated,
			"records_failed":  failed,
			"errors":          pq.StringArray(errs),
			"finished_at":     now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to finish sync log %s: %w", id, err)
	}
	return nil
}

func (r *syncLogRepository) List(ctx context.Context, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.SyncLog
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	return logs, nil
}
