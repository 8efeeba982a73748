package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/service"
	"github.com/dariogeorge21/prayer-collector/internal/session"
	"github.com/dariogeorge21/prayer-collector/internal/websocket"
)

// Service is the application surface used by the HTTP layer
type Service interface {
	CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, query string) ([]domain.User, error)
	DeleteUser(ctx context.Context, userID string) error

	TodayEntry(ctx context.Context, userID string) (*domain.DailyEntry, error)
	SaveEntry(ctx context.Context, sub domain.EntrySubmission) (*domain.DailyEntry, error)
	SaveEntries(ctx context.Context, subs []domain.EntrySubmission) (int, error)
	History(ctx context.Context, userID string, q service.HistoryQuery) (*domain.HistoryPage, error)
	ExportHistory(ctx context.Context, userID string, w io.Writer) (string, error)

	Leaderboard(ctx context.Context, userID string) (*domain.Leaderboard, error)
	UserRank(ctx context.Context, userID string) (*domain.UserRank, error)
	TopScorers(ctx context.Context) (*domain.TopScorers, error)
	Refresh(ctx context.Context) error

	AdminStats(ctx context.Context) (*domain.AdminStats, error)
	AdminUsers(ctx context.Context, q service.UserQuery) (*domain.UserPage, error)
	ExportUsers(ctx context.Context, w io.Writer) error
}

// Sessions manages admin sessions
type Sessions interface {
	Login(ctx context.Context, req domain.AdminLoginRequest) (*domain.AdminSession, error)
	Verify(ctx context.Context, token string) (session.Result, error)
	Extend(ctx context.Context, token string) (*domain.AdminSession, error)
	Logout(ctx context.Context, token string) error
}

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP handlers for the prayer tracker API
type Handler struct {
	service        Service
	sessions       Sessions
	hub            *websocket.Hub
	logger         *slog.Logger
	allowedOrigins []string
	checks         map[string]Pinger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Service, sessions Sessions, hub *websocket.Hub, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		service:        svc,
		sessions:       sessions,
		hub:            hub,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		checks:         make(map[string]Pinger),
	}
}

// AddReadinessCheck registers a dependency that must answer Ping for the
// service to report ready
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks[name] = p
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)

			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", h.GetUser)
				r.With(h.requireAdmin).Delete("/", h.DeleteUser)
				r.Get("/entries/today", h.GetTodayEntry)
				r.Put("/entries/today", h.SaveTodayEntry)
				r.Get("/history", h.GetHistory)
				r.Get("/history.csv", h.ExportHistory)
				r.Get("/rank", h.GetUserRank)
			})
		})

		r.Get("/leaderboard", h.GetLeaderboard)
		r.Get("/top-scorers", h.GetTopScorers)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Post("/logout", h.AdminLogout)
				r.Post("/refresh", h.AdminRefreshSession)
				r.Post("/recompute", h.AdminRecompute)
				r.Post("/entries/batch", h.AdminSaveEntries)
				r.Get("/stats", h.AdminStats)
				r.Get("/users", h.AdminUsers)
				r.Get("/users.csv", h.AdminExportUsers)
			})
		})

		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	resp := APIResponse{
		Success: false,
		Error:   err.Error(),
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	h.writeJSON(w, status, resp)
}

// writeServiceError maps a service error onto a status code. Unexpected
// errors are logged and hidden behind ErrInternalError.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUserExists):
		h.writeError(w, http.StatusConflict, err)
	case domain.IsAuthError(err):
		h.writeError(w, http.StatusUnauthorized, err)
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return false
	}
	return true
}

// queryInt reads a positive integer query parameter, or returns def
func queryInt(r *http.Request, name string, def int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.hub.Stats())
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck pings every registered dependency
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks)+1)
	ready := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "dependency", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		status["status"] = "not ready"
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Error: "not ready"})
		return
	}
	status["status"] = "ready"
	h.writeSuccess(w, status)
}

// GetLeaderboard returns the ranked board, with the caller's row when
// user_id is given
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeServiceError(w, "leaderboard", err)
		return
	}
	h.writeSuccess(w, lb)
}

// GetTopScorers returns the top-5 lists for longest current streak, most
// prayer minutes and highest score this week
func (h *Handler) GetTopScorers(w http.ResponseWriter, r *http.Request) {
	ts, err := h.service.TopScorers(r.Context())
	if err != nil {
		h.writeServiceError(w, "top scorers", err)
		return
	}
	h.writeSuccess(w, ts)
}
