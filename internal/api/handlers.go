package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/identity"
	"github.com/sirdesai22/lacs-verts/internal/services"
)

// SessionHeader carries the session id on the handshake and the issued
// session token on every authenticated call.
const SessionHeader = identity.SessionHeader

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, message{Message: "Lacs Verts API"})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	u, err := s.Users.Authenticate(r.Context(), sessionToken(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Lakes

func (s *Server) handleListLakes(w http.ResponseWriter, r *http.Request) {
	lakes, err := s.Lakes.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lakes)
}

func (s *Server) handleGetLake(w http.ResponseWriter, r *http.Request) {
	lake, err := s.Lakes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lake)
}

// handleUpdateLakeStatus takes the new status from the "status" query
// parameter, or from a {"status": ...} body when the parameter is absent. An
// unreadable body counts as a missing status, so the session checks still
// answer first.
func (s *Server) handleUpdateLakeStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" && r.Body != nil {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			status = body.Status
		}
	}

	if err := s.Lakes.UpdateStatus(r.Context(), sessionToken(r), r.PathValue("id"), status); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Status updated successfully"})
}

// Reports

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var in services.ReportInput
	if err := decodeJSON(r, &in); err != nil {
		// A bad session outranks a bad body.
		if _, authErr := s.Users.CurrentUser(r.Context(), sessionToken(r)); authErr != nil {
			err = authErr
		}
		s.writeError(w, r, err)
		return
	}
	rep, err := s.Reports.Create(r.Context(), sessionToken(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.Reports.ListAll(r.Context(), sessionToken(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleListLakeReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.Reports.ListForLake(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// Awareness

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in services.PostInput
	if err := decodeJSON(r, &in); err != nil {
		if _, authErr := s.Users.RequireAdmin(r.Context(), sessionToken(r)); authErr != nil {
			err = authErr
		}
		s.writeError(w, r, err)
		return
	}
	p, err := s.Awareness.Create(r.Context(), sessionToken(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Awareness.ListPublished(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.Awareness.Delete(r.Context(), sessionToken(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Post deleted successfully"})
}

// Sync operations, admin only.

const opsListLimit = 100

func (s *Server) handleOutbox(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Users.RequireAdmin(r.Context(), sessionToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	events, err := s.Sync.RecentOutbox(r.Context(), opsListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleDLQ(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Users.RequireAdmin(r.Context(), sessionToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.Sync.RecentDLQ(r.Context(), opsListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRetryDLQ(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Users.RequireAdmin(r.Context(), sessionToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, common.New(common.ErrorNotFound, "DLQ entry not found"))
		return
	}
	if err := s.Sync.RetryDLQEntry(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retried"})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.Wrap(common.ErrorBadRequest, "request body too large", err)
		}
		return common.Wrap(common.ErrorBadRequest, "invalid JSON", err)
	}
	return nil
}
