package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/padraicbc/racelog/models"
)

// PostgresUserRepository implements UserRepository with bun.
type PostgresUserRepository struct {
	db *bun.DB
}

// NewUserRepository creates a user repository over db.
func NewUserRepository(db *bun.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a user; a taken email yields ErrEmailTaken.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if _, err := r.db.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByID returns the user with id, or ErrNotFound.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := r.db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail returns the user registered with email, or ErrNotFound.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.db.NewSelect().Model(user).Where("u.email = ?", normalizeEmail(email)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return user, nil
}

// Save inserts the user or updates the row with the same email.
func (r *PostgresUserRepository) Save(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	_, err := r.db.NewInsert().Model(user).
		On("CONFLICT (email) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("password = EXCLUDED.password").
		Set("role = EXCLUDED.role").
		Set("avatar = EXCLUDED.avatar").
		Set("google_id = EXCLUDED.google_id").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

const listUsersSQL = `
SELECT
	u.id, u.name, u.email, u.role, u.avatar, u.created_at,
	(SELECT COUNT(*) FROM races r WHERE r.user_id = u.id) AS race_count
FROM users u
ORDER BY u.created_at DESC
`

// List returns every user, newest first, with their race counts.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.UserSummary, error) {
	rows := []models.UserSummary{}
	if err := r.db.NewRaw(listUsersSQL).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return rows, nil
}

// Delete removes the user with id.
func (r *PostgresUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
