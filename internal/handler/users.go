package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/service"
)

// ListUsers returns every user, optionally filtered by ?q=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, "list users", err)
		return
	}
	h.writeSuccess(w, users)
}

// CreateUser registers a new user
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "create user", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    user,
	})
}

// GetUser returns a user by ID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, "get user", err)
		return
	}
	h.writeSuccess(w, user)
}

// DeleteUser removes a user and their entries
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.writeServiceError(w, "delete user", err)
		return
	}

	if s := sessionFrom(r.Context()); s != nil {
		h.logger.Info("user deleted by admin", "user_id", userID, "admin_id", s.UserID)
	}
	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// GetTodayEntry returns today's entry, or an empty one
func (h *Handler) GetTodayEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.TodayEntry(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, "get today entry", err)
		return
	}
	h.writeSuccess(w, entry)
}

// SaveTodayEntry upserts today's entry for the user
func (h *Handler) SaveTodayEntry(w http.ResponseWriter, r *http.Request) {
	var input domain.EntryInput
	if !h.decode(w, r, &input) {
		return
	}

	entry, err := h.service.SaveEntry(r.Context(), domain.EntrySubmission{
		UserID:     chi.URLParam(r, "userID"),
		EntryInput: input,
	})
	if err != nil {
		h.writeServiceError(w, "save entry", err)
		return
	}
	h.writeSuccess(w, entry)
}

// GetHistory returns a page of history with all-time stats
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.History(r.Context(), chi.URLParam(r, "userID"), service.HistoryQuery{
		Range:    r.URL.Query().Get("range"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 0),
	})
	if err != nil {
		h.writeServiceError(w, "history", err)
		return
	}
	h.writeSuccess(w, page)
}

// ExportHistory downloads the user's history as CSV
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	filename, err := h.service.ExportHistory(r.Context(), chi.URLParam(r, "userID"), &buf)
	if err != nil {
		h.writeServiceError(w, "export history", err)
		return
	}
	writeCSV(w, filename, buf.Bytes())
}

// GetUserRank returns the user's leaderboard position
func (h *Handler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	rank, err := h.service.UserRank(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, "user rank", err)
		return
	}
	h.writeSuccess(w, rank)
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
