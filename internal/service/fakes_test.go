package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dariogeorge21/prayer-collector/internal/config"
	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/validation"
)

type memStore struct {
	mu      sync.Mutex
	users   map[string]domain.User
	entries map[string]domain.DailyEntry // keyed by user id + date
	failAll error
	// afterListUsers runs outside the lock once ListUsers has returned
	afterListUsers func()
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]domain.User),
		entries: make(map[string]domain.DailyEntry),
	}
}

func entryKey(userID string, d domain.Date) string { return userID + "/" + d.String() }

func (m *memStore) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Name == u.Name {
			return domain.ErrUserExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByName(_ context.Context, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memStore) ListUsers(_ context.Context) ([]domain.User, error) {
	if m.afterListUsers != nil {
		defer m.afterListUsers()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *memStore) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	m.users[id] = u
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	for k, e := range m.entries {
		if e.UserID == id {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memStore) CountUsers(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *memStore) upsert(e domain.DailyEntry) domain.DailyEntry {
	k := entryKey(e.UserID, e.EntryDate)
	if existing, ok := m.entries[k]; ok {
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
	}
	m.entries[k] = e
	return e
}

func (m *memStore) UpsertEntry(_ context.Context, e domain.DailyEntry) (*domain.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[e.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	saved := m.upsert(e)
	return &saved, nil
}

func (m *memStore) BatchUpsertEntries(_ context.Context, entries []domain.DailyEntry) ([]domain.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// all-or-nothing, like the foreign key failing inside one transaction
	for _, e := range entries {
		if _, ok := m.users[e.UserID]; !ok {
			return nil, domain.ErrUserNotFound
		}
	}
	saved := make([]domain.DailyEntry, 0, len(entries))
	for _, e := range entries {
		saved = append(saved, m.upsert(e))
	}
	return saved, nil
}

func (m *memStore) GetEntry(_ context.Context, userID string, d domain.Date) (*domain.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryKey(userID, d)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memStore) filtered(keep func(domain.DailyEntry) bool) []domain.DailyEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DailyEntry, 0)
	for _, e := range m.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (m *memStore) ListUserEntries(_ context.Context, userID string) ([]domain.DailyEntry, error) {
	return m.filtered(func(e domain.DailyEntry) bool { return e.UserID == userID }), nil
}

func (m *memStore) ListEntriesBetween(_ context.Context, from, to domain.Date) ([]domain.DailyEntry, error) {
	return m.filtered(func(e domain.DailyEntry) bool {
		return !e.EntryDate.Before(from) && !e.EntryDate.After(to)
	}), nil
}

func (m *memStore) ListAllEntries(_ context.Context) ([]domain.DailyEntry, error) {
	return m.filtered(func(domain.DailyEntry) bool { return true }), nil
}

type memCache struct {
	board      []domain.LeaderboardEntry
	topScorers *domain.TopScorers
	adminStats *domain.AdminStats
	sets       int
	setErr     error
}

func (c *memCache) SetLeaderboard(_ context.Context, board []domain.LeaderboardEntry, _ time.Duration) error {
	c.board = board
	c.sets++
	return nil
}

func (c *memCache) GetLeaderboard(_ context.Context) ([]domain.LeaderboardEntry, error) {
	if c.board == nil {
		return nil, domain.ErrCacheMiss
	}
	return c.board, nil
}

func (c *memCache) UserRank(_ context.Context, userID string) (int, int, error) {
	if c.board == nil {
		return 0, 0, domain.ErrCacheMiss
	}
	for _, e := range c.board {
		if e.UserID == userID {
			return e.Rank, len(c.board), nil
		}
	}
	return 0, len(c.board), domain.ErrUserNotFound
}

func (c *memCache) SetTopScorers(_ context.Context, ts domain.TopScorers, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.topScorers = &ts
	return nil
}

func (c *memCache) GetTopScorers(_ context.Context) (*domain.TopScorers, error) {
	if c.topScorers == nil {
		return nil, domain.ErrCacheMiss
	}
	return c.topScorers, nil
}

func (c *memCache) SetAdminStats(_ context.Context, s domain.AdminStats, _ time.Duration) error {
	c.adminStats = &s
	return nil
}

func (c *memCache) GetAdminStats(_ context.Context) (*domain.AdminStats, error) {
	if c.adminStats == nil {
		return nil, domain.ErrCacheMiss
	}
	return c.adminStats, nil
}

func (c *memCache) Invalidate(_ context.Context) error {
	c.board, c.topScorers, c.adminStats = nil, nil, nil
	return nil
}

type recordingBroadcaster struct {
	boards     int
	topScorers int
}

func (b *recordingBroadcaster) BroadcastLeaderboard([]domain.LeaderboardEntry) { b.boards++ }
func (b *recordingBroadcaster) BroadcastTopScorers(domain.TopScorers)          { b.topScorers++ }

// 22:00 on 2024-03-10 in UTC+8
var testNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *memStore
	cache *memCache
	bc    *recordingBroadcaster
}

func newFixture() *fixture {
	store := newMemStore()
	cache := &memCache{}
	bc := &recordingBroadcaster{}
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := New(store, cache, validation.New(), &cfg.Leaderboard, time.FixedZone("PHT", 8*60*60), logger)
	svc.SetBroadcaster(bc)
	svc.SetClock(func() time.Time { return testNow })
	return &fixture{svc: svc, store: store, cache: cache, bc: bc}
}

func (f *fixture) addUser(id, name string, admin bool) {
	f.store.users[id] = domain.User{ID: id, Name: name, IsAdmin: admin}
}

func (f *fixture) addEntry(userID, date string, rosary, mass bool, minutes int) {
	d := domain.MustParseDate(date)
	f.store.entries[entryKey(userID, d)] = domain.DailyEntry{
		ID:                userID + date,
		UserID:            userID,
		EntryDate:         d,
		RosaryCompleted:   rosary,
		HolyMassAttended:  mass,
		PrayerTimeMinutes: minutes,
	}
}
