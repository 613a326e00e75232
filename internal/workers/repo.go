// internal/workers/repo.go
// claims outbox batches and records dead letters
package workers

import (
	"context"
	"time"

	"github.com/sirdesai22/lacs-verts/internal/metrics"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"gorm.io/gorm"
)

type OutboxBatch struct{ Events []models.Outbox }

// FetchOutboxBatch claims up to limit unprocessed events. FOR UPDATE SKIP
// LOCKED lets several workers share the table.
func FetchOutboxBatch(ctx context.Context, db *gorm.DB, limit int) (OutboxBatch, error) {
	var evts []models.Outbox
	tx := db.WithContext(ctx).Raw(`
		WITH cte AS (
		  SELECT * FROM outboxes
		  WHERE processed = false
		  ORDER BY id ASC
		  LIMIT ?
		  FOR UPDATE SKIP LOCKED
		)
		UPDATE outboxes SET processed = true
		FROM cte
		WHERE outboxes.id = cte.id
		RETURNING cte.*`, limit).Scan(&evts)
	return OutboxBatch{Events: evts}, tx.Error
}

// PutDLQ inserts a failed outbox event into the DLQ table.
func (w *SyncWorker) PutDLQ(ctx context.Context, ob models.Outbox, msg string) {
	metrics.DLQEvents.Inc()
	dlq := models.DLQ{
		OutboxID:   ob.ID,
		EntityType: ob.EntityType,
		EntityID:   ob.EntityID.String(),
		Op:         ob.Op,
		ErrorMsg:   msg,
		Payload:    ob.Payload,
		CreatedAt:  time.Now().UTC(),
	}
	if err := w.DB.WithContext(ctx).Create(&dlq).Error; err != nil {
		w.Log.Error(ctx, "failed to insert into DLQ", "outbox_id", ob.ID, "err", err)
		return
	}
	w.Log.Warn(ctx, "DLQ record created", "outbox_id", ob.ID, "entity", ob.EntityType, "reason", msg)
}
