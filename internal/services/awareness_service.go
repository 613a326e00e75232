package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"github.com/sirdesai22/lacs-verts/internal/repository"
)

type PostInput struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	ImageBase64 *string `json:"image_base64"`
	VideoBase64 *string `json:"video_base64"`
}

type AwarenessService struct {
	posts repository.Posts
	auth  Authorizer
	log   logging.Logger
	now   func() time.Time
}

func NewAwarenessService(posts repository.Posts, auth Authorizer, log logging.Logger) *AwarenessService {
	return &AwarenessService{posts: posts, auth: auth, log: log, now: time.Now}
}

func (s *AwarenessService) Create(ctx context.Context, token string, in PostInput) (*models.AwarenessPost, error) {
	admin, err := s.auth.RequireAdmin(ctx, token)
	if err != nil {
		return nil, err
	}
	// Whitespace-only counts as missing.
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.New(common.ErrorBadRequest, "title is required")
	}

	p := &models.AwarenessPost{
		ID:          uuid.New(),
		Title:       in.Title,
		Content:     in.Content,
		ImageBase64: in.ImageBase64,
		VideoBase64: in.VideoBase64,
		AuthorID:    admin.ID,
		AuthorName:  admin.Name,
		CreatedAt:   s.now().UTC(),
		IsPublished: true,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "awareness post created", "post_id", p.ID, "author_id", admin.ID)
	return p, nil
}

func (s *AwarenessService) ListPublished(ctx context.Context) ([]models.AwarenessPost, error) {
	return nonNil(s.posts.ListPublished(ctx))
}

func (s *AwarenessService) Delete(ctx context.Context, token, id string) error {
	admin, err := s.auth.RequireAdmin(ctx, token)
	if err != nil {
		return err
	}
	pid, err := parseID(id, "Post not found")
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, pid); err != nil {
		return err
	}
	s.log.Info(ctx, "awareness post deleted", "post_id", pid, "admin_id", admin.ID)
	return nil
}
