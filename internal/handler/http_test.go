package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/service"
	"github.com/dariogeorge21/prayer-collector/internal/session"
	"github.com/dariogeorge21/prayer-collector/internal/websocket"
)

const adminToken = "admin-token"

type fakeService struct {
	users     map[string]domain.User
	err       error
	saved     []domain.EntrySubmission
	history   service.HistoryQuery
	userQuery service.UserQuery
	refreshed int
}

func newFakeService() *fakeService {
	return &fakeService{users: map[string]domain.User{
		"u1": {ID: "u1", Name: "Ann"},
	}}
}

func (f *fakeService) lookup(id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeService) CreateUser(_ context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: "new", Name: req.Name}, nil
}

func (f *fakeService) GetUser(_ context.Context, id string) (*domain.User, error) {
	return f.lookup(id)
}

func (f *fakeService) ListUsers(context.Context, string) ([]domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.User{f.users["u1"]}, nil
}

func (f *fakeService) DeleteUser(_ context.Context, id string) error {
	_, err := f.lookup(id)
	return err
}

func (f *fakeService) TodayEntry(_ context.Context, id string) (*domain.DailyEntry, error) {
	if _, err := f.lookup(id); err != nil {
		return nil, err
	}
	return &domain.DailyEntry{UserID: id}, nil
}

func (f *fakeService) SaveEntry(_ context.Context, sub domain.EntrySubmission) (*domain.DailyEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, sub)
	return &domain.DailyEntry{UserID: sub.UserID, RosaryCompleted: sub.RosaryCompleted}, nil
}

func (f *fakeService) SaveEntries(_ context.Context, subs []domain.EntrySubmission) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	saved := 0
	for _, sub := range subs {
		if _, ok := f.users[sub.UserID]; ok {
			f.saved = append(f.saved, sub)
			saved++
		}
	}
	return saved, nil
}

func (f *fakeService) History(_ context.Context, id string, q service.HistoryQuery) (*domain.HistoryPage, error) {
	u, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	f.history = q
	return &domain.HistoryPage{User: *u, Range: q.Range, Page: q.Page}, nil
}

func (f *fakeService) ExportHistory(_ context.Context, id string, w io.Writer) (string, error) {
	if _, err := f.lookup(id); err != nil {
		return "", err
	}
	_, _ = io.WriteString(w, "Date,Rosary\n")
	return "prayer-history-ann.csv", nil
}

func (f *fakeService) Leaderboard(_ context.Context, userID string) (*domain.Leaderboard, error) {
	if f.err != nil {
		return nil, f.err
	}
	entry := domain.LeaderboardEntry{UserSummary: domain.UserSummary{UserID: "u1", Name: "Ann"}, Rank: 1}
	lb := &domain.Leaderboard{Entries: []domain.LeaderboardEntry{entry}, TotalUsers: 1}
	if userID == "u1" {
		lb.CurrentUser = &entry
		lb.CurrentUserRank = 1
	}
	return lb, nil
}

func (f *fakeService) UserRank(_ context.Context, id string) (*domain.UserRank, error) {
	if _, err := f.lookup(id); err != nil {
		return nil, err
	}
	return &domain.UserRank{UserID: id, Rank: 1, TotalUsers: 1}, nil
}

func (f *fakeService) TopScorers(context.Context) (*domain.TopScorers, error) {
	return &domain.TopScorers{}, f.err
}

func (f *fakeService) Refresh(context.Context) error {
	f.refreshed++
	return f.err
}

func (f *fakeService) AdminStats(context.Context) (*domain.AdminStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AdminStats{TotalUsers: 1}, nil
}

func (f *fakeService) AdminUsers(_ context.Context, q service.UserQuery) (*domain.UserPage, error) {
	f.userQuery = q
	return &domain.UserPage{TotalCount: 1, Page: q.Page}, f.err
}

func (f *fakeService) ExportUsers(_ context.Context, w io.Writer) error {
	_, _ = io.WriteString(w, "Name\nAnn\n")
	return f.err
}

type fakeSessions struct {
	loggedOut []string
	verifyErr error
}

func (f *fakeSessions) Login(_ context.Context, req domain.AdminLoginRequest) (*domain.AdminSession, error) {
	if req.Password != "secret" {
		return nil, domain.ErrInvalidPassword
	}
	return &domain.AdminSession{Token: adminToken, UserID: "u1", IsAdmin: true}, nil
}

func (f *fakeSessions) Verify(_ context.Context, token string) (session.Result, error) {
	if f.verifyErr != nil {
		return session.Result{}, f.verifyErr
	}
	if token != adminToken {
		return session.Result{}, nil
	}
	return session.Result{Valid: true, Session: &domain.AdminSession{Token: token, UserID: "u1", IsAdmin: true}}, nil
}

func (f *fakeSessions) Extend(_ context.Context, token string) (*domain.AdminSession, error) {
	return &domain.AdminSession{Token: token, ExpiresAt: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeSessions) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fixture struct {
	svc      *fakeService
	sessions *fakeSessions
	handler  *Handler
	router   http.Handler
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := newFakeService()
	sessions := &fakeSessions{}
	h := NewHandler(svc, sessions, websocket.NewHub(logger), []string{"*"}, logger)
	return &fixture{svc: svc, sessions: sessions, handler: h, router: h.Router()}
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRoutes_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
	}{
		{name: "health", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "list users", method: http.MethodGet, path: "/api/v1/users", status: http.StatusOK},
		{name: "create user", method: http.MethodPost, path: "/api/v1/users", body: `{"name":"Ann"}`, status: http.StatusCreated},
		{name: "create user bad json", method: http.MethodPost, path: "/api/v1/users", body: `{`, status: http.StatusBadRequest},
		{name: "get user", method: http.MethodGet, path: "/api/v1/users/u1", status: http.StatusOK},
		{name: "get unknown user", method: http.MethodGet, path: "/api/v1/users/nope", status: http.StatusNotFound},
		{name: "delete user without session", method: http.MethodDelete, path: "/api/v1/users/u1", status: http.StatusUnauthorized},
		{name: "delete user as admin", method: http.MethodDelete, path: "/api/v1/users/u1", token: adminToken, status: http.StatusOK},
		{name: "today entry", method: http.MethodGet, path: "/api/v1/users/u1/entries/today", status: http.StatusOK},
		{name: "save today entry", method: http.MethodPut, path: "/api/v1/users/u1/entries/today", body: `{"rosary_completed":true}`, status: http.StatusOK},
		{name: "history", method: http.MethodGet, path: "/api/v1/users/u1/history", status: http.StatusOK},
		{name: "rank", method: http.MethodGet, path: "/api/v1/users/u1/rank", status: http.StatusOK},
		{name: "rank unknown", method: http.MethodGet, path: "/api/v1/users/nope/rank", status: http.StatusNotFound},
		{name: "leaderboard", method: http.MethodGet, path: "/api/v1/leaderboard", status: http.StatusOK},
		{name: "top scorers", method: http.MethodGet, path: "/api/v1/top-scorers", status: http.StatusOK},
		{name: "ws stats", method: http.MethodGet, path: "/api/v1/ws/stats", status: http.StatusOK},
		{name: "login wrong password", method: http.MethodPost, path: "/api/v1/admin/login", body: `{"password":"nope"}`, status: http.StatusUnauthorized},
		{name: "login", method: http.MethodPost, path: "/api/v1/admin/login", body: `{"password":"secret"}`, status: http.StatusOK},
		{name: "admin stats without session", method: http.MethodGet, path: "/api/v1/admin/stats", status: http.StatusUnauthorized},
		{name: "admin stats bad token", method: http.MethodGet, path: "/api/v1/admin/stats", token: "stale", status: http.StatusUnauthorized},
		{name: "admin stats", method: http.MethodGet, path: "/api/v1/admin/stats", token: adminToken, status: http.StatusOK},
		{name: "admin refresh session", method: http.MethodPost, path: "/api/v1/admin/refresh", token: adminToken, status: http.StatusOK},
		{name: "admin recompute", method: http.MethodPost, path: "/api/v1/admin/recompute", token: adminToken, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rec := f.do(tt.method, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "not found", err: domain.ErrUserNotFound, status: http.StatusNotFound, msg: "user not found"},
		{name: "empty entry", err: domain.ErrEmptyEntry, status: http.StatusBadRequest, msg: domain.ErrEmptyEntry.Error()},
		{name: "exists", err: domain.ErrUserExists, status: http.StatusConflict, msg: "user already exists"},
		{name: "unauthorized", err: domain.ErrUnauthorized, status: http.StatusUnauthorized, msg: "unauthorized"},
		{name: "internal", err: errors.New("connection reset"), status: http.StatusInternalServerError, msg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.svc.err = tt.err

			rec := f.do(http.MethodPut, "/api/v1/users/u1/entries/today", `{"rosary_completed":true}`, "")

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.msg, resp.Error)
		})
	}
}

func TestValidationErrorIncludesFields(t *testing.T) {
	f := newFixture()
	f.svc.err = &domain.ValidationError{Fields: map[string]string{"name": "is required"}}

	rec := f.do(http.MethodPost, "/api/v1/users", `{"name":""}`, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, map[string]string{"name": "is required"}, resp.Fields)
}

func TestSaveTodayEntry_UsesPathUser(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/api/v1/users/u1/entries/today",
		`{"rosary_completed":true,"prayer_time_minutes":20}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.svc.saved, 1)
	got := f.svc.saved[0]
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.RosaryCompleted)
	assert.Equal(t, 20, got.PrayerTimeMinutes)
	assert.True(t, got.EntryDate.IsZero())
}

func TestGetHistory_PassesQuery(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/users/u1/history?range=last7&page=2&page_size=5", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.HistoryQuery{Range: "last7", Page: 2, PageSize: 5}, f.svc.history)
}

func TestGetHistory_BadPagingFallsBack(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/users/u1/history?page=-3&page_size=abc", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.HistoryQuery{Page: 1}, f.svc.history)
}

func TestExportHistory_CSVHeaders(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/users/u1/history.csv", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="prayer-history-ann.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Rosary\n", rec.Body.String())
}

func TestExportHistory_UnknownUserIsJSON404(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/users/nope/history.csv", "", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestGetLeaderboard_CurrentUser(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/leaderboard?user_id=u1", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data domain.Leaderboard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.CurrentUser)
	assert.Equal(t, 1, resp.Data.CurrentUserRank)
}

func TestAdminUsers_PassesQuery(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/admin/users?q=an&sort=current_streak&dir=DESC&page=3", "", adminToken)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.UserQuery{
		Search:     "an",
		Sort:       "current_streak",
		Descending: true,
		Page:       3,
	}, f.svc.userQuery)
}

func TestAdminExportUsers(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/admin/users.csv", "", adminToken)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="prayer-collector-users.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Name\nAnn\n", rec.Body.String())
}

func TestAdminLogout_DropsBearerToken(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/v1/admin/logout", "", adminToken)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{adminToken}, f.sessions.loggedOut)
}

func TestAdminRecompute_CallsRefresh(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/v1/admin/recompute", "", adminToken)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.svc.refreshed)
}

func TestAdminSaveEntries(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		token  string
		status int
		saved  int
	}{
		{name: "requires admin", body: `{"entries":[{"user_id":"u1","rosary_completed":true}]}`, status: http.StatusUnauthorized},
		{name: "empty batch", body: `{"entries":[]}`, token: adminToken, status: http.StatusBadRequest},
		{name: "bad json", body: `{"entries":`, token: adminToken, status: http.StatusBadRequest},
		{
			name:   "unknown users are skipped",
			body:   `{"entries":[{"user_id":"u1","entry_date":"2024-03-09","rosary_completed":true},{"user_id":"ghost","rosary_completed":true}]}`,
			token:  adminToken,
			status: http.StatusOK,
			saved:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			rec := f.do(http.MethodPost, "/api/v1/admin/entries/batch", tt.body, tt.token)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var resp struct {
				Data map[string]int `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, map[string]int{"received": 2, "saved": tt.saved}, resp.Data)
			require.Len(t, f.svc.saved, 1)
			assert.Equal(t, "2024-03-09", f.svc.saved[0].EntryDate.String())
		})
	}
}

func TestRequireAdmin_StoreFailureIs500(t *testing.T) {
	f := newFixture()
	f.sessions.verifyErr = errors.New("redis down")

	rec := f.do(http.MethodGet, "/api/v1/admin/stats", "", adminToken)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name   string
		redis  error
		status int
	}{
		{name: "all dependencies up", status: http.StatusOK},
		{name: "redis down", redis: errors.New("dial tcp: refused"), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.handler.AddReadinessCheck("postgres", fakePinger{})
			f.handler.AddReadinessCheck("redis", fakePinger{err: tt.redis})

			rec := f.do(http.MethodGet, "/ready", "", "")

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "Bearer  abc ", want: "abc"},
		{header: "Basic abc", want: ""},
		{header: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}
