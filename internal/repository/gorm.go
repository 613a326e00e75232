package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewGormStore returns a Store backed by db. With outbox set, each write also
// records a change event in the same transaction for the search-index worker.
func NewGormStore(db *gorm.DB, outbox bool) *Store {
	return &Store{
		Users:   &GormUsers{db: db},
		Lakes:   &GormLakes{db: db, outbox: outbox},
		Reports: &GormReports{db: db, outbox: outbox},
		Posts:   &GormPosts{db: db, outbox: outbox},
	}
}

func storageError(op string, err error) error {
	return common.Wrap(common.ErrorInternal, "storage error", fmt.Errorf("%s: %w", op, err))
}

// ---------------- USERS ----------------
type GormUsers struct {
	db *gorm.DB
}

func (r *GormUsers) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	var out models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		in := *u
		// Concurrent first logins for one email collapse into a token update.
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"session_token"}),
		}).Create(&in).Error
		if err != nil {
			return err
		}
		return tx.Where("email = ?", u.Email).Take(&out).Error
	})
	if err != nil {
		return nil, storageError("upsert user", err)
	}
	return &out, nil
}

func (r *GormUsers) FindBySessionToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("session_token = ?", token).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.New(common.ErrorNotFound, "user not found")
	}
	if err != nil {
		return nil, storageError("find user by session", err)
	}
	return &u, nil
}

// ---------------- LAKES ----------------
type GormLakes struct {
	db     *gorm.DB
	outbox bool
}

func (r *GormLakes) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Lake{}).Count(&n).Error; err != nil {
		return 0, storageError("count lakes", err)
	}
	return n, nil
}

func (r *GormLakes) Seed(ctx context.Context, lakes []models.Lake) (int, error) {
	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Lake{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 || len(lakes) == 0 {
			return nil
		}
		if err := tx.Create(&lakes).Error; err != nil {
			return err
		}
		if r.outbox {
			ids := make([]uuid.UUID, len(lakes))
			for i := range lakes {
				ids[i] = lakes[i].ID
			}
			if err := AddBatchOutboxEvents(tx, models.EntityLake, models.OpUpsert, ids); err != nil {
				return err
			}
		}
		inserted = len(lakes)
		return nil
	})
	if err != nil {
		return 0, storageError("seed lakes", err)
	}
	return inserted, nil
}

func (r *GormLakes) List(ctx context.Context) ([]models.Lake, error) {
	var lakes []models.Lake
	err := r.db.WithContext(ctx).Order("created_at asc, name asc").Limit(MaxListSize).Find(&lakes).Error
	if err != nil {
		return nil, storageError("list lakes", err)
	}
	return lakes, nil
}

func (r *GormLakes) Get(ctx context.Context, id uuid.UUID) (*models.Lake, error) {
	var l models.Lake
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.New(common.ErrorNotFound, "Lake not found")
	}
	if err != nil {
		return nil, storageError("get lake", err)
	}
	return &l, nil
}

func (r *GormLakes) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LakeStatus, at time.Time) error {
	var matched int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Lake{}).Where("id = ?", id).
			Updates(map[string]any{"status": status, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		matched = res.RowsAffected
		if matched == 0 || !r.outbox {
			return nil
		}
		return AddOutboxEvent(tx, models.EntityLake, id, models.OpUpsert,
			map[string]any{"status": status, "updated_at": at})
	})
	if err != nil {
		return storageError("update lake status", err)
	}
	if matched == 0 {
		return common.New(common.ErrorNotFound, "Lake not found")
	}
	return nil
}

// ---------------- REPORTS ----------------
type GormReports struct {
	db     *gorm.DB
	outbox bool
}

func (r *GormReports) Create(ctx context.Context, rep *models.Report) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rep).Error; err != nil {
			return err
		}
		if !r.outbox {
			return nil
		}
		return AddOutboxEvent(tx, models.EntityReport, rep.ID, models.OpUpsert,
			map[string]any{"lake_id": rep.LakeID, "status": rep.Status})
	})
	if err != nil {
		return storageError("create report", err)
	}
	return nil
}

func (r *GormReports) List(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(MaxListSize).Find(&out).Error
	if err != nil {
		return nil, storageError("list reports", err)
	}
	return out, nil
}

func (r *GormReports) ListByLake(ctx context.Context, lakeID string) ([]models.Report, error) {
	var out []models.Report
	err := r.db.WithContext(ctx).Where("lake_id = ?", lakeID).
		Order("created_at desc").Limit(MaxListSize).Find(&out).Error
	if err != nil {
		return nil, storageError("list reports by lake", err)
	}
	return out, nil
}

// ---------------- AWARENESS ----------------
type GormPosts struct {
	db     *gorm.DB
	outbox bool
}

func (r *GormPosts) Create(ctx context.Context, p *models.AwarenessPost) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if !r.outbox {
			return nil
		}
		return AddOutboxEvent(tx, models.EntityAwarenessPost, p.ID, models.OpUpsert,
			map[string]any{"title": p.Title})
	})
	if err != nil {
		return storageError("create awareness post", err)
	}
	return nil
}

func (r *GormPosts) ListPublished(ctx context.Context) ([]models.AwarenessPost, error) {
	var out []models.AwarenessPost
	err := r.db.WithContext(ctx).Where("is_published = ?", true).
		Order("created_at desc").Limit(MaxListSize).Find(&out).Error
	if err != nil {
		return nil, storageError("list awareness posts", err)
	}
	return out, nil
}

func (r *GormPosts) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.AwarenessPost{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 || !r.outbox {
			return nil
		}
		return AddOutboxEvent(tx, models.EntityAwarenessPost, id, models.OpDelete, nil)
	})
	if err != nil {
		return storageError("delete awareness post", err)
	}
	if deleted == 0 {
		return common.New(common.ErrorNotFound, "Post not found")
	}
	return nil
}
