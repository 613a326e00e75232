// internal/workers/sync_worker.go
package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/sirdesai22/lacs-verts/internal/elastic"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/metrics"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"gorm.io/gorm"
)

const defaultBatchSize = 200

// SyncWorker ships outbox events into the search indexes.
type SyncWorker struct {
	DB            *gorm.DB
	ES            *es.Client
	Log           logging.Logger
	Interval      time.Duration
	RetryInterval time.Duration

	newIndexer func() (esutil.BulkIndexer, error)
}

// failureFunc is called for every bulk item Elasticsearch rejects.
type failureFunc func(ctx context.Context, e models.Outbox, msg string)

func (w *SyncWorker) indexer() (esutil.BulkIndexer, error) {
	if w.newIndexer != nil {
		return w.newIndexer()
	}
	return esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: w.ES, FlushBytes: 5 << 20, NumWorkers: 2,
	})
}

// Run polls the outbox until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	if err := elastic.EnsureIndexes(ctx, w.ES); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				w.Log.Error(ctx, "sync worker error", "err", err)
			}
		}
	}
}

func (w *SyncWorker) processOnce(ctx context.Context) error {
	batch, err := FetchOutboxBatch(ctx, w.DB, defaultBatchSize)
	if err != nil {
		return err
	}
	if len(batch.Events) == 0 {
		return nil
	}

	bi, err := w.indexer()
	if err != nil {
		return err
	}

	for _, e := range batch.Events {
		// Events are already marked processed, so a failure goes to the DLQ
		// instead of being retried forever.
		if err := w.applyEvent(ctx, bi, e, w.PutDLQ); err != nil {
			metrics.FailedEvents.Inc()
			w.PutDLQ(ctx, e, err.Error())
		}
	}

	if err := bi.Close(ctx); err != nil {
		return err
	}
	stats := bi.Stats()
	w.Log.Info(ctx, "bulk flushed", "ok", stats.NumFlushed, "failed", stats.NumFailed)
	return nil
}

func (w *SyncWorker) applyEvent(ctx context.Context, bi esutil.BulkIndexer, e models.Outbox, onFail failureFunc) error {
	switch e.EntityType {
	case models.EntityLake:
		return syncEntity(ctx, w, bi, elastic.IdxLakes, e, onFail, elastic.BuildLakeDoc)
	case models.EntityReport:
		return syncEntity(ctx, w, bi, elastic.IdxReports, e, onFail, elastic.BuildReportDoc)
	case models.EntityAwarenessPost:
		return syncEntity(ctx, w, bi, elastic.IdxAwareness, e, onFail, elastic.BuildAwarenessDoc)
	}
	return fmt.Errorf("unknown entity_type=%s", e.EntityType)
}

// syncEntity reloads the row behind e and indexes it. A row that no longer
// exists is removed from the index.
func syncEntity[T any](ctx context.Context, w *SyncWorker, bi esutil.BulkIndexer, index string,
	e models.Outbox, onFail failureFunc, build func(T) ([]byte, error)) error {
	if e.Op == models.OpDelete {
		return w.add(ctx, bi, index, e, "delete", nil, onFail)
	}
	var row T
	err := w.DB.WithContext(ctx).First(&row, "id = ?", e.EntityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w.add(ctx, bi, index, e, "delete", nil, onFail)
	}
	if err != nil {
		return err
	}
	doc, err := build(row)
	if err != nil {
		return err
	}
	return w.add(ctx, bi, index, e, "index", doc, onFail)
}

func (w *SyncWorker) add(ctx context.Context, bi esutil.BulkIndexer, index string, e models.Outbox,
	action string, body []byte, onFail failureFunc) error {
	docID := e.EntityID.String()
	item := esutil.BulkIndexerItem{
		Action:     action,
		DocumentID: docID,
		Index:      index,
		OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
			metrics.ProcessedEvents.Inc()
			w.Log.Debug(ctx, "synced", "index", index, "id", docID)
		},
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			msg := ""
			switch {
			case err != nil:
				msg = err.Error()
			case res.Error.Reason != "":
				msg = fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason)
			default:
				msg = fmt.Sprintf("status=%d failed to index", res.Status)
			}
			metrics.FailedEvents.Inc()
			if onFail != nil {
				onFail(ctx, e, msg)
			}
		},
	}
	if len(body) > 0 {
		item.Body = bytes.NewReader(body)
	}
	return bi.Add(ctx, item)
}
