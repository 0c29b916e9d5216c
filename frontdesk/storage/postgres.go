// Package storage keeps user screens in Postgres so they survive restarts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/insurebot/core/logger"
	"github.com/m3rciful/insurebot/core/telegram/state"
)

// ScreenStore implements state.Store on the user_screens table.
type ScreenStore struct {
	db *sqlx.DB
}

var _ state.Store = (*ScreenStore)(nil)

// NewScreenStore wraps an open connection pool.
func NewScreenStore(db *sqlx.DB) *ScreenStore {
	return &ScreenStore{db: db}
}

type screenRow struct {
	UserID    int64     `db:"user_id"`
	Screen    string    `db:"screen"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get returns the stored screen of userID.
func (s *ScreenStore) Get(ctx context.Context, userID int64) (state.State, bool, error) {
	var row screenRow
	err := s.db.GetContext(ctx, &row, `SELECT user_id, screen, updated_at FROM user_screens WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select user screen: %w", err)
	}
	return state.State(row.Screen), true, nil
}

// upsertScreen writes the new screen and reads the previous one in a single
// statement; the row lock taken by ON CONFLICT serializes writers per user.
const upsertScreen = `
WITH prev AS (
	SELECT screen FROM user_screens WHERE user_id = $1 FOR UPDATE
)
INSERT INTO user_screens (user_id, screen, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET screen = EXCLUDED.screen, updated_at = EXCLUDED.updated_at
RETURNING COALESCE((SELECT screen FROM prev), '')`

// Set stores st for userID and returns the previous value.
func (s *ScreenStore) Set(ctx context.Context, userID int64, st state.State) (state.State, error) {
	start := time.Now()
	var prev string
	if err := s.db.QueryRowxContext(ctx, upsertScreen, userID, string(st)).Scan(&prev); err != nil {
		logger.DB.Error("upsert user screen failed",
			slog.String("event", "screen.upsert"),
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("upsert user screen: %w", err)
	}
	if logger.ShouldSampleDebug() {
		logger.DB.Debug("user screen stored",
			slog.String("event", "screen.upsert"),
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return state.State(prev), nil
}

type screenCount struct {
	Screen string `db:"screen"`
	Users  int    `db:"users"`
}

// Counts groups users by stored screen.
func (s *ScreenStore) Counts(ctx context.Context) (map[state.State]int, error) {
	var rows []screenCount
	if err := s.db.SelectContext(ctx, &rows, `SELECT screen, COUNT(*) AS users FROM user_screens GROUP BY screen`); err != nil {
		return nil, fmt.Errorf("count user screens: %w", err)
	}
	out := make(map[state.State]int, len(rows))
	for _, r := range rows {
		out[state.State(r.Screen)] = r.Users
	}
	return out, nil
}

// Forget removes users whose screen has not changed since before cutoff.
func (s *ScreenStore) Forget(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_screens WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle user screens: %w", err)
	}
	return res.RowsAffected()
}
