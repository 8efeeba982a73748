package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dariogeorge21/prayer-collector/internal/config"
	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// Cache stores computed snapshots and admin sessions in Redis
type Cache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewCache creates a new Redis-backed cache
func NewCache(cfg *config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return newCache(client, cfg.KeyPrefix, logger), nil
}

func newCache(client *redis.Client, prefix string, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (c *Cache) leaderboardKey() string { return c.key("snapshot", "leaderboard") }
func (c *Cache) ranksKey() string       { return c.key("leaderboard", "ranks") }
func (c *Cache) topScorersKey() string  { return c.key("snapshot", "top_scorers") }
func (c *Cache) adminStatsKey() string  { return c.key("snapshot", "admin_stats") }
func (c *Cache) sessionKey(token string) string {
	return c.key("session", token)
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, v any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrCacheMiss
		}
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return nil
}

// SetLeaderboard stores the ranked board and indexes each user's rank in a
// sorted set so single-user lookups avoid decoding the whole snapshot.
func (c *Cache) SetLeaderboard(ctx context.Context, board []domain.LeaderboardEntry, ttl time.Duration) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("marshaling leaderboard: %w", err)
	}

	ranks := make([]redis.Z, len(board))
	for i, e := range board {
		ranks[i] = redis.Z{Score: float64(e.Rank), Member: e.UserID}
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.leaderboardKey(), data, ttl)
	pipe.Del(ctx, c.ranksKey())
	if len(ranks) > 0 {
		pipe.ZAdd(ctx, c.ranksKey(), ranks...)
		pipe.Expire(ctx, c.ranksKey(), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing leaderboard: %w", err)
	}
	return nil
}

// GetLeaderboard returns the cached board or ErrCacheMiss
func (c *Cache) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var board []domain.LeaderboardEntry
	if err := c.getJSON(ctx, c.leaderboardKey(), &board); err != nil {
		return nil, err
	}
	return board, nil
}

// UserRank returns a user's cached rank and the number of ranked users.
// ErrCacheMiss means the rank index has expired; ErrUserNotFound means the
// index exists but does not contain the user.
func (c *Cache) UserRank(ctx context.Context, userID string) (int, int, error) {
	key := c.ranksKey()

	pipe := c.client.Pipeline()
	scoreCmd := pipe.ZScore(ctx, key, userID)
	countCmd := pipe.ZCard(ctx, key)
	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("getting user rank: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return 0, 0, fmt.Errorf("getting rank count: %w", err)
	}
	if count == 0 {
		return 0, 0, domain.ErrCacheMiss
	}

	rank, err := scoreCmd.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, int(count), domain.ErrUserNotFound
		}
		return 0, 0, fmt.Errorf("getting rank result: %w", err)
	}
	return int(rank), int(count), nil
}

// SetTopScorers stores the top-scorer lists
func (c *Cache) SetTopScorers(ctx context.Context, ts domain.TopScorers, ttl time.Duration) error {
	return c.setJSON(ctx, c.topScorersKey(), ts, ttl)
}

// GetTopScorers returns the cached top-scorer lists or ErrCacheMiss
func (c *Cache) GetTopScorers(ctx context.Context) (*domain.TopScorers, error) {
	var ts domain.TopScorers
	if err := c.getJSON(ctx, c.topScorersKey(), &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

// SetAdminStats stores the admin dashboard totals
func (c *Cache) SetAdminStats(ctx context.Context, s domain.AdminStats, ttl time.Duration) error {
	return c.setJSON(ctx, c.adminStatsKey(), s, ttl)
}

// GetAdminStats returns cached admin totals or ErrCacheMiss
func (c *Cache) GetAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var s domain.AdminStats
	if err := c.getJSON(ctx, c.adminStatsKey(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Invalidate drops every snapshot so the next read recomputes
func (c *Cache) Invalidate(ctx context.Context) error {
	err := c.client.Del(ctx,
		c.leaderboardKey(),
		c.ranksKey(),
		c.topScorersKey(),
		c.adminStatsKey(),
	).Err()
	if err != nil {
		return fmt.Errorf("invalidating snapshots: %w", err)
	}
	return nil
}

// SaveSession stores an admin session as a hash that expires after ttl.
// The caller derives ttl from its own clock.
func (c *Cache) SaveSession(ctx context.Context, s domain.AdminSession, ttl time.Duration) error {
	if ttl <= 0 {
		return domain.ErrSessionExpired
	}

	key := c.sessionKey(s.Token)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, sessionFields(s))
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession loads a session by token; unknown tokens yield ErrUnauthorized
func (c *Cache) GetSession(ctx context.Context, token string) (*domain.AdminSession, error) {
	result, err := c.client.HGetAll(ctx, c.sessionKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrUnauthorized
	}
	return parseSession(token, result)
}

// DeleteSession removes a session
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, c.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
