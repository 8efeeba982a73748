package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/service"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *domain.AdminSession {
	s, _ := ctx.Value(sessionKey{}).(*domain.AdminSession)
	return s
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// requireAdmin rejects requests without a live admin session
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.sessions.Verify(r.Context(), bearerToken(r))
		if err != nil {
			h.writeServiceError(w, "verify session", err)
			return
		}
		if !res.Valid {
			h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, res.Session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminLogin exchanges the admin password for a session token
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.sessions.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "admin login", err)
		return
	}
	h.writeSuccess(w, s)
}

// AdminLogout ends the current session
func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), bearerToken(r)); err != nil {
		h.writeServiceError(w, "admin logout", err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "logged_out"})
}

// AdminRefreshSession extends the current session
func (h *Handler) AdminRefreshSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Extend(r.Context(), bearerToken(r))
	if err != nil {
		h.writeServiceError(w, "extend session", err)
		return
	}
	h.writeSuccess(w, s)
}

// AdminRecompute rebuilds and rebroadcasts every cached snapshot
func (h *Handler) AdminRecompute(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.writeServiceError(w, "recompute snapshots", err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "refreshed"})
}

// AdminSaveEntries stores a batch of submissions, e.g. a backfill. Invalid
// submissions are skipped; the response reports how many were saved.
func (h *Handler) AdminSaveEntries(w http.ResponseWriter, r *http.Request) {
	var batch domain.BatchEntrySubmission
	if !h.decode(w, r, &batch) {
		return
	}
	if len(batch.Entries) == 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	saved, err := h.service.SaveEntries(r.Context(), batch.Entries)
	if err != nil {
		h.writeServiceError(w, "save entry batch", err)
		return
	}
	h.writeSuccess(w, map[string]int{
		"received": len(batch.Entries),
		"saved":    saved,
	})
}

// AdminStats returns group-wide totals
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.AdminStats(r.Context())
	if err != nil {
		h.writeServiceError(w, "admin stats", err)
		return
	}
	h.writeSuccess(w, totals)
}

// AdminUsers returns the sortable, searchable user table
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.AdminUsers(r.Context(), service.UserQuery{
		Search:     q.Get("q"),
		Sort:       q.Get("sort"),
		Descending: strings.EqualFold(q.Get("dir"), "desc"),
		Page:       queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 0),
	})
	if err != nil {
		h.writeServiceError(w, "admin users", err)
		return
	}
	h.writeSuccess(w, page)
}

// AdminExportUsers downloads the user table as CSV
func (h *Handler) AdminExportUsers(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportUsers(r.Context(), &buf); err != nil {
		h.writeServiceError(w, "export users", err)
		return
	}
	writeCSV(w, "prayer-collector-users.csv", buf.Bytes())
}
