package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/elastic"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/metrics"
	"github.com/sirdesai22/lacs-verts/internal/models"
)

// fakeIndexer records items and reports the configured number of failures.
type fakeIndexer struct {
	items  []esutil.BulkIndexerItem
	failed uint64
	closed bool
}

func (f *fakeIndexer) Add(_ context.Context, item esutil.BulkIndexerItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeIndexer) Close(context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeIndexer) Stats() esutil.BulkIndexerStats {
	return esutil.BulkIndexerStats{NumAdded: uint64(len(f.items)), NumFailed: f.failed}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newTestWorker(db *gorm.DB, bi *fakeIndexer) *SyncWorker {
	return &SyncWorker{
		DB:         db,
		Log:        logging.Discard(),
		newIndexer: func() (esutil.BulkIndexer, error) { return bi, nil },
	}
}

func TestApplyEvent_DeleteSkipsDatabase(t *testing.T) {
	bi := &fakeIndexer{}
	w := newTestWorker(nil, bi)
	id := uuid.New()

	err := w.applyEvent(context.Background(), bi, models.Outbox{
		ID: 7, EntityType: models.EntityAwarenessPost, EntityID: id, Op: models.OpDelete,
	}, nil)
	require.NoError(t, err)

	require.Len(t, bi.items, 1)
	item := bi.items[0]
	assert.Equal(t, "delete", item.Action)
	assert.Equal(t, elastic.IdxAwareness, item.Index)
	assert.Equal(t, id.String(), item.DocumentID)
	assert.Nil(t, item.Body)
}

func TestApplyEvent_UnknownEntity(t *testing.T) {
	bi := &fakeIndexer{}
	w := newTestWorker(nil, bi)

	err := w.applyEvent(context.Background(), bi, models.Outbox{EntityType: "user", EntityID: uuid.New(), Op: models.OpUpsert}, nil)
	require.Error(t, err)
	assert.Empty(t, bi.items)
}

func TestApplyEvent_UpsertLakeIndexesDocument(t *testing.T) {
	db, mock := newMockDB(t)
	bi := &fakeIndexer{}
	w := newTestWorker(db, bi)
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "lakes"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "latitude", "longitude", "status", "description", "region", "created_at", "updated_at"}).
			AddRow(id.String(), "Lac Buyo", 6.5, -7.0, "pollué", "desc", "Région de San-Pédro", now, now),
	)

	err := w.applyEvent(context.Background(), bi, models.Outbox{EntityType: models.EntityLake, EntityID: id, Op: models.OpUpsert}, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, bi.items, 1)
	item := bi.items[0]
	assert.Equal(t, "index", item.Action)
	assert.Equal(t, elastic.IdxLakes, item.Index)

	raw, err := io.ReadAll(item.Body)
	require.NoError(t, err)
	var doc elastic.LakeDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Lac Buyo", doc.Name)
	assert.Equal(t, "pollué", doc.Status)
	assert.Equal(t, 6.5, doc.Location.Lat)
}

func TestApplyEvent_MissingRowBecomesDelete(t *testing.T) {
	db, mock := newMockDB(t)
	bi := &fakeIndexer{}
	w := newTestWorker(db, bi)

	mock.ExpectQuery(`SELECT \* FROM "reports"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := w.applyEvent(context.Background(), bi, models.Outbox{EntityType: models.EntityReport, EntityID: uuid.New(), Op: models.OpUpsert}, nil)
	require.NoError(t, err)
	require.Len(t, bi.items, 1)
	assert.Equal(t, "delete", bi.items[0].Action)
	assert.Equal(t, elastic.IdxReports, bi.items[0].Index)
}

func TestApplyEvent_LoadErrorIsReturned(t *testing.T) {
	db, mock := newMockDB(t)
	bi := &fakeIndexer{}
	w := newTestWorker(db, bi)

	mock.ExpectQuery(`SELECT \* FROM "lakes"`).WillReturnError(errors.New("connection reset"))

	err := w.applyEvent(context.Background(), bi, models.Outbox{EntityType: models.EntityLake, EntityID: uuid.New(), Op: models.OpUpsert}, nil)
	require.Error(t, err)
	assert.Empty(t, bi.items)
}

func TestAdd_OnFailureReportsReason(t *testing.T) {
	bi := &fakeIndexer{}
	w := newTestWorker(nil, bi)
	ev := models.Outbox{ID: 3, EntityType: models.EntityLake, EntityID: uuid.New(), Op: models.OpDelete}

	var got []string
	onFail := func(_ context.Context, e models.Outbox, msg string) {
		assert.Equal(t, ev.ID, e.ID)
		got = append(got, msg)
	}
	require.NoError(t, w.add(context.Background(), bi, elastic.IdxLakes, ev, "delete", nil, onFail))
	require.Len(t, bi.items, 1)

	var res esutil.BulkIndexerResponseItem
	res.Status = 400
	res.Error.Type = "mapper_parsing_exception"
	res.Error.Reason = "bad geo_point"
	bi.items[0].OnFailure(context.Background(), bi.items[0], res, nil)

	res = esutil.BulkIndexerResponseItem{Status: 503}
	bi.items[0].OnFailure(context.Background(), bi.items[0], res, nil)

	bi.items[0].OnFailure(context.Background(), bi.items[0], esutil.BulkIndexerResponseItem{}, errors.New("timeout"))

	assert.Equal(t, []string{
		"mapper_parsing_exception: bad geo_point",
		"status=503 failed to index",
		"timeout",
	}, got)
}

func TestRetryOne_BadEntityID(t *testing.T) {
	bi := &fakeIndexer{}
	w := newTestWorker(nil, bi)

	err := w.retryOne(context.Background(), models.DLQ{ID: 1, EntityType: models.EntityLake, EntityID: "nope", Op: models.OpDelete})
	require.Error(t, err)
	assert.Empty(t, bi.items)
}

func TestRetryOne_ResolvesOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	bi := &fakeIndexer{}
	w := newTestWorker(db, bi)

	mock.ExpectExec(`UPDATE .* SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := w.retryOne(context.Background(), models.DLQ{
		ID: 9, OutboxID: 4, EntityType: models.EntityAwarenessPost, EntityID: uuid.NewString(), Op: models.OpDelete,
	})
	require.NoError(t, err)
	assert.True(t, bi.closed)
	require.Len(t, bi.items, 1)
	assert.Equal(t, "delete", bi.items[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryOne_BulkFailureLeavesEntry(t *testing.T) {
	db, mock := newMockDB(t)
	bi := &fakeIndexer{failed: 1}
	w := newTestWorker(db, bi)

	err := w.retryOne(context.Background(), models.DLQ{
		ID: 9, EntityType: models.EntityLake, EntityID: uuid.NewString(), Op: models.OpDelete,
	})
	require.Error(t, err)
	assert.True(t, bi.closed)
	// no UPDATE was expected, so none may have run
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryDLQEntry_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	w := newTestWorker(db, &fakeIndexer{})

	mock.ExpectQuery(`SELECT \* FROM`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := w.RetryDLQEntry(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestRecentOutbox_StorageError(t *testing.T) {
	db, mock := newMockDB(t)
	w := newTestWorker(db, &fakeIndexer{})

	mock.ExpectQuery(`SELECT \* FROM "outboxes"`).WillReturnError(errors.New("boom"))

	_, err := w.RecentOutbox(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorInternal))
	assert.Equal(t, "storage error", common.Message(err))
}

func TestAdd_CountsProcessedOnlyOnSuccess(t *testing.T) {
	bi := &fakeIndexer{}
	w := newTestWorker(nil, bi)
	ev := models.Outbox{ID: 5, EntityType: models.EntityLake, EntityID: uuid.New(), Op: models.OpDelete}

	processed := testutil.ToFloat64(metrics.ProcessedEvents)
	failed := testutil.ToFloat64(metrics.FailedEvents)

	require.NoError(t, w.add(context.Background(), bi, elastic.IdxLakes, ev, "delete", nil, nil))
	require.NoError(t, w.add(context.Background(), bi, elastic.IdxLakes, ev, "delete", nil, nil))
	assert.Equal(t, processed, testutil.ToFloat64(metrics.ProcessedEvents), "queued items are not yet processed")

	bi.items[0].OnSuccess(context.Background(), bi.items[0], esutil.BulkIndexerResponseItem{Status: 200})
	bi.items[1].OnFailure(context.Background(), bi.items[1], esutil.BulkIndexerResponseItem{Status: 503}, nil)

	assert.Equal(t, processed+1, testutil.ToFloat64(metrics.ProcessedEvents))
	assert.Equal(t, failed+1, testutil.ToFloat64(metrics.FailedEvents))
}
