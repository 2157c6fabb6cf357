package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

type userRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewUserRepository(db *sql.DB, driver string) UserRepository {
	return &userRepository{db: db, sb: StatementBuilder(driver)}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := r.sb.Select("id", "email", "full_name", "password_hash", "role", "is_active", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (r *userRepository) Upsert(ctx context.Context, u models.User) (*models.User, error) {
	existing, err := r.FindByEmail(ctx, u.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	_, err = r.sb.Insert("users").
		SetMap(map[string]interface{}{
			"id":            u.ID,
			"email":         u.Email,
			"full_name":     u.FullName,
			"password_hash": u.PasswordHash,
			"role":          string(u.Role),
			"is_active":     u.IsActive,
			"created_at":    u.CreatedAt,
		}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", u.Email, err)
	}
	return &u, nil
}
