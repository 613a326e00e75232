// Package api exposes the lake-monitoring operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"github.com/sirdesai22/lacs-verts/internal/services"
)

// SyncOps is the operational view of the search-index sync pipeline.
type SyncOps interface {
	RecentOutbox(ctx context.Context, limit int) ([]models.Outbox, error)
	RecentDLQ(ctx context.Context, limit int) ([]models.DLQ, error)
	RetryDLQEntry(ctx context.Context, id int64) error
}

type Server struct {
	Users     *services.UserService
	Lakes     *services.LakeService
	Reports   *services.ReportService
	Awareness *services.AwarenessService
	// Sync is optional; its admin routes are only mounted when set.
	Sync SyncOps
	Log  logging.Logger

	MaxBodyBytes int64
}

// Register mounts every API route on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/{$}", s.handleRoot)
	mux.HandleFunc("POST /api/auth/profile", s.handleAuthenticate)

	mux.HandleFunc("GET /api/lakes", s.handleListLakes)
	mux.HandleFunc("GET /api/lakes/{id}", s.handleGetLake)
	mux.HandleFunc("PUT /api/lakes/{id}/status", s.handleUpdateLakeStatus)

	mux.HandleFunc("POST /api/reports", s.handleCreateReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/lake/{id}", s.handleListLakeReports)

	mux.HandleFunc("POST /api/awareness", s.handleCreatePost)
	mux.HandleFunc("GET /api/awareness", s.handleListPosts)
	mux.HandleFunc("DELETE /api/awareness/{id}", s.handleDeletePost)

	if s.Sync != nil {
		mux.HandleFunc("GET /api/admin/outbox", s.handleOutbox)
		mux.HandleFunc("GET /api/admin/dlq", s.handleDLQ)
		mux.HandleFunc("POST /api/admin/dlq/{id}/retry", s.handleRetryDLQ)
	}
}

// Handler returns the routes wrapped with body limits, logging and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.instrument(s.limitBody(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.Log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: common.KindName(err), Detail: common.Message(err)})
}

func sessionToken(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}

type message struct {
	Message string `json:"message"`
}
