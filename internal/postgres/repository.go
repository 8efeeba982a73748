package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dariogeorge21/prayer-collector/internal/config"
	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255),
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS daily_entries (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			entry_date DATE NOT NULL,
			rosary_completed BOOLEAN NOT NULL DEFAULT FALSE,
			holy_mass_attended BOOLEAN NOT NULL DEFAULT FALSE,
			prayer_time_minutes INT NOT NULL DEFAULT 0
				CHECK (prayer_time_minutes >= 0 AND prayer_time_minutes <= 1440),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, entry_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_entries_date ON daily_entries(entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_entries_user_date ON daily_entries(user_id, entry_date DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const userColumns = `id::text, name, email, is_admin, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// CreateUser inserts a new user. A duplicate name yields ErrUserExists.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (id, name, email, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// parseID normalizes a user id so lookups compare uuid to uuid and can use
// the primary key and user_id indexes. Malformed ids name no user.
func parseID(userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", domain.ErrUserNotFound
	}
	return id.String(), nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// GetUserByName retrieves a user by exact name
func (r *Repository) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user by name: %w", err)
	}
	return &u, nil
}

// ListUsers retrieves all users ordered by name, then id
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return collectUsers(rows)
}

// FirstAdmin returns the earliest-created admin user
func (r *Repository) FirstAdmin(ctx context.Context) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_admin ORDER BY created_at, id LIMIT 1`
	u, err := scanUser(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoAdminUser
		}
		return nil, fmt.Errorf("getting admin user: %w", err)
	}
	return &u, nil
}

// SetAdmin grants or revokes the admin flag
func (r *Repository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, id, isAdmin)
	if err != nil {
		return fmt.Errorf("updating admin flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user and, by cascade, all of their entries
func (r *Repository) DeleteUser(ctx context.Context, userID string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CountUsers returns the number of registered users
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

const entryColumns = `id::text, user_id::text, entry_date, rosary_completed, holy_mass_attended,
	prayer_time_minutes, created_at, updated_at`

func scanEntry(row pgx.Row) (domain.DailyEntry, error) {
	var (
		e   domain.DailyEntry
		day time.Time
	)
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&day,
		&e.RosaryCompleted,
		&e.HolyMassAttended,
		&e.PrayerTimeMinutes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	e.EntryDate = domain.DateOf(day)
	return e, err
}

func collectEntries(rows pgx.Rows) ([]domain.DailyEntry, error) {
	defer rows.Close()

	entries := make([]domain.DailyEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

const upsertEntryQuery = `
	INSERT INTO daily_entries (id, user_id, entry_date, rosary_completed, holy_mass_attended,
		prayer_time_minutes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (user_id, entry_date)
	DO UPDATE SET
		rosary_completed = EXCLUDED.rosary_completed,
		holy_mass_attended = EXCLUDED.holy_mass_attended,
		prayer_time_minutes = EXCLUDED.prayer_time_minutes,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + entryColumns

func upsertArgs(e domain.DailyEntry) []any {
	return []any{
		e.ID,
		e.UserID,
		e.EntryDate.Time,
		e.RosaryCompleted,
		e.HolyMassAttended,
		e.PrayerTimeMinutes,
		e.UpdatedAt,
	}
}

func entryWriteError(err error) error {
	if pgErrorCode(err) == foreignKeyViolation {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("upserting entry: %w", err)
}

// UpsertEntry inserts the entry or overwrites the user's entry for that date.
// The stored row is returned; on conflict it keeps its original id and
// created_at.
func (r *Repository) UpsertEntry(ctx context.Context, entry domain.DailyEntry) (*domain.DailyEntry, error) {
	saved, err := scanEntry(r.pool.QueryRow(ctx, upsertEntryQuery, upsertArgs(entry)...))
	if err != nil {
		return nil, entryWriteError(err)
	}
	return &saved, nil
}

// BatchUpsertEntries upserts several entries in one round trip
func (r *Repository) BatchUpsertEntries(ctx context.Context, entries []domain.DailyEntry) ([]domain.DailyEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(upsertEntryQuery, upsertArgs(e)...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	saved := make([]domain.DailyEntry, 0, len(entries))
	for range entries {
		e, err := scanEntry(br.QueryRow())
		if err != nil {
			return nil, entryWriteError(err)
		}
		saved = append(saved, e)
	}
	return saved, nil
}

// GetEntry retrieves a user's entry for one date
func (r *Repository) GetEntry(ctx context.Context, userID string, date domain.Date) (*domain.DailyEntry, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + entryColumns + ` FROM daily_entries WHERE user_id = $1 AND entry_date = $2`
	e, err := scanEntry(r.pool.QueryRow(ctx, query, id, date.Time))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return &e, nil
}

// ListUserEntries retrieves all of a user's entries, newest first
func (r *Repository) ListUserEntries(ctx context.Context, userID string) ([]domain.DailyEntry, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + entryColumns + ` FROM daily_entries WHERE user_id = $1 ORDER BY entry_date DESC`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("listing user entries: %w", err)
	}
	return collectEntries(rows)
}

// ListEntriesBetween retrieves every user's entries dated from..to inclusive
func (r *Repository) ListEntriesBetween(ctx context.Context, from, to domain.Date) ([]domain.DailyEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM daily_entries
		WHERE entry_date BETWEEN $1 AND $2
		ORDER BY entry_date DESC, user_id`
	rows, err := r.pool.Query(ctx, query, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("listing entries between dates: %w", err)
	}
	return collectEntries(rows)
}

// ListAllEntries retrieves every entry, newest first
func (r *Repository) ListAllEntries(ctx context.Context) ([]domain.DailyEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM daily_entries ORDER BY entry_date DESC, user_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return collectEntries(rows)
}
