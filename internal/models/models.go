package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ---------------- USERS ----------------
// IsAdmin is provisioned directly in the database; no API call sets it.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	SessionToken string    `gorm:"index" json:"session_token"`
	IsAdmin      bool      `gorm:"not null" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// ---------------- LAKES ----------------
type LakeStatus string

const (
	LakeClean    LakeStatus = "propre"
	LakeWatch    LakeStatus = "à surveiller"
	LakePolluted LakeStatus = "pollué"
)

var lakeStatusAliases = map[string]LakeStatus{
	string(LakeClean):    LakeClean,
	string(LakeWatch):    LakeWatch,
	string(LakePolluted): LakePolluted,
	"clean":              LakeClean,
	"watch":              LakeWatch,
	"polluted":           LakePolluted,
}

// ParseLakeStatus accepts either the stored label or its english name.
func ParseLakeStatus(s string) (LakeStatus, bool) {
	st, ok := lakeStatusAliases[strings.TrimSpace(s)]
	return st, ok
}

type Lake struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"index;not null" json:"name"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Status      LakeStatus `gorm:"not null" json:"status"`
	Description string     `json:"description"`
	Region      string     `json:"region"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ---------------- REPORTS ----------------
type ReportStatus string

// Only ReportPending is produced today.
const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

// LakeID is a free string, not a foreign key.
type Report struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	LakeID      string       `gorm:"index;not null" json:"lake_id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null" json:"user_id"`
	UserName    string       `json:"user_name"`
	Description string       `json:"description"`
	ImageBase64 *string      `json:"image_base64"`
	VideoBase64 *string      `json:"video_base64"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	Status      ReportStatus `gorm:"not null" json:"status"`
}

// ---------------- AWARENESS ----------------
type AwarenessPost struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Content     string    `json:"content"`
	ImageBase64 *string   `json:"image_base64"`
	VideoBase64 *string   `json:"video_base64"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	AuthorName  string    `json:"author_name"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	IsPublished bool      `gorm:"index" json:"is_published"`
}

// ---------------- OUTBOX (for sync events) ----------------
const (
	EntityLake          = "lake"
	EntityReport        = "report"
	EntityAwarenessPost = "awareness_post"

	OpUpsert = "UPSERT"
	OpDelete = "DELETE"
)

type Outbox struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string         `gorm:"index;not null" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null" json:"entity_id"`
	Op         string         `gorm:"not null" json:"op"` // UPSERT | DELETE
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
	Processed  bool           `gorm:"not null" json:"processed"`
}
