package elastic

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/models"
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type LakeDoc struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Location    GeoPoint  `json:"location"`
	Description string    `json:"description"`
	Region      string    `json:"region"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func BuildLakeDoc(l models.Lake) ([]byte, error) {
	return json.Marshal(LakeDoc{
		Name: l.Name, Status: string(l.Status), Location: GeoPoint{Lat: l.Latitude, Lon: l.Longitude},
		Description: l.Description, Region: l.Region, UpdatedAt: l.UpdatedAt,
	})
}

// ReportDoc leaves out the media payloads and records only whether one exists.
type ReportDoc struct {
	LakeID      string    `json:"lake_id"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	HasMedia    bool      `json:"has_media"`
	CreatedAt   time.Time `json:"created_at"`
}

func BuildReportDoc(r models.Report) ([]byte, error) {
	return json.Marshal(ReportDoc{
		LakeID: r.LakeID, UserID: r.UserID, UserName: r.UserName, Description: r.Description,
		Status: string(r.Status), HasMedia: r.ImageBase64 != nil || r.VideoBase64 != nil, CreatedAt: r.CreatedAt,
	})
}

type AwarenessDoc struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"author_name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

func BuildAwarenessDoc(p models.AwarenessPost) ([]byte, error) {
	return json.Marshal(AwarenessDoc{
		Title: p.Title, Content: p.Content, AuthorName: p.AuthorName,
		IsPublished: p.IsPublished, CreatedAt: p.CreatedAt,
	})
}
