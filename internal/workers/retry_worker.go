package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"gorm.io/gorm"
)

const dlqRetryBatch = 50

// RetryDLQ re-applies unresolved dead letters every RetryInterval.
func (w *SyncWorker) RetryDLQ(ctx context.Context) {
	ticker := time.NewTicker(w.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var dlqs []models.DLQ
			if err := w.DB.WithContext(ctx).Where("resolved = ?", false).Order("id asc").Limit(dlqRetryBatch).Find(&dlqs).Error; err != nil {
				w.Log.Error(ctx, "DLQ fetch error", "err", err)
				continue
			}
			for _, d := range dlqs {
				if err := w.retryOne(ctx, d); err != nil {
					w.Log.Warn(ctx, "DLQ retry failed", "dlq_id", d.ID, "err", err)
					continue
				}
				w.Log.Info(ctx, "DLQ entry resolved", "dlq_id", d.ID)
			}
		}
	}
}

// retryOne re-applies d and marks it resolved only if every bulk item was
// accepted. A failed retry leaves d in place rather than adding a new row.
func (w *SyncWorker) retryOne(ctx context.Context, d models.DLQ) error {
	id, err := uuid.Parse(d.EntityID)
	if err != nil {
		return fmt.Errorf("dlq %d: bad entity id: %w", d.ID, err)
	}
	ob := models.Outbox{ID: d.OutboxID, EntityType: d.EntityType, EntityID: id, Op: d.Op}

	bi, err := w.indexer()
	if err != nil {
		return err
	}
	logFailure := func(ctx context.Context, e models.Outbox, msg string) {
		w.Log.Warn(ctx, "DLQ retry rejected", "dlq_id", d.ID, "reason", msg)
	}
	if err := w.applyEvent(ctx, bi, ob, logFailure); err != nil {
		_ = bi.Close(ctx)
		return err
	}
	if err := bi.Close(ctx); err != nil {
		return err
	}
	if n := bi.Stats().NumFailed; n > 0 {
		return fmt.Errorf("%d bulk items failed", n)
	}

	now := time.Now().UTC()
	return w.DB.WithContext(ctx).Model(&models.DLQ{}).Where("id = ?", d.ID).
		Updates(map[string]any{"resolved": true, "retried_at": &now}).Error
}

func (w *SyncWorker) RecentOutbox(ctx context.Context, limit int) ([]models.Outbox, error) {
	out := []models.Outbox{}
	if err := w.DB.WithContext(ctx).Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, common.Wrap(common.ErrorInternal, "storage error", err)
	}
	return out, nil
}

func (w *SyncWorker) RecentDLQ(ctx context.Context, limit int) ([]models.DLQ, error) {
	out := []models.DLQ{}
	if err := w.DB.WithContext(ctx).Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, common.Wrap(common.ErrorInternal, "storage error", err)
	}
	return out, nil
}

// RetryDLQEntry retries one dead letter on demand.
func (w *SyncWorker) RetryDLQEntry(ctx context.Context, id int64) error {
	var d models.DLQ
	err := w.DB.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.New(common.ErrorNotFound, "DLQ entry not found")
	}
	if err != nil {
		return common.Wrap(common.ErrorInternal, "storage error", err)
	}
	if err := w.retryOne(ctx, d); err != nil {
		return common.Wrap(common.ErrorInternal, "retry failed", err)
	}
	return nil
}
