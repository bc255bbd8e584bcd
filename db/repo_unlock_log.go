package db

import (
	"context"
	"fmt"

	"lockerbox/models"

	"github.com/google/uuid"
)

func (r *Repo) LogUnlock(ctx context.Context, entry *models.UnlockLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert unlock log: %w", err)
	}
	return nil
}

func (r *Repo) ListUnlockLogs(ctx context.Context, limit int) ([]models.UnlockLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.UnlockLog
	err := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
