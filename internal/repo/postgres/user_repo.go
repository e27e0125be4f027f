package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
	"github.com/accessmap/backend/internal/domain/rules"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// ApplyGrant upserts the user row, credits the points to the total and the
// per-kind breakdown, and recomputes the level, all in one transaction.
// Returns the new total and level.
func (r *UserRepo) ApplyGrant(ctx context.Context, userID string, kind enums.PointsKind, points int) (int, int, error) {
	if strings.TrimSpace(userID) == "" || points <= 0 {
		return 0, 0, fmt.Errorf("invalid points payload")
	}
	if r.pool == nil {
		return 0, 0, fmt.Errorf("postgres pool is nil")
	}

	var total, level int
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
INSERT INTO users (
	id,
	points,
	breakdown,
	level,
	created_at,
	updated_at
) VALUES ($1, $2, jsonb_build_object($3::text, $2::int), 1, NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET
	points = users.points + EXCLUDED.points,
	breakdown = users.breakdown || jsonb_build_object(
		$3::text,
		COALESCE((users.breakdown ->> $3)::int, 0) + $2::int
	),
	updated_at = NOW()
RETURNING points
`, userID, points, string(kind)).Scan(&total); err != nil {
			return fmt.Errorf("add user points: %w", err)
		}

		level = rules.LevelForPoints(total)
		if _, err := tx.Exec(ctx, `
UPDATE users SET level = $1 WHERE id = $2
`, level, userID); err != nil {
			return fmt.Errorf("set user level: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return total, level, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (model.User, error) {
	if strings.TrimSpace(userID) == "" {
		return model.User{}, ErrUserNotFound
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, points, breakdown, level, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1
`, userID).Scan(&user.ID, &user.Points, &user.Breakdown, &user.Level, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}
