package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/model"
)

// Find-one methods return (nil, nil) when no row matches; callers decide
// whether absence is an error.
type Repo interface {
	Create(ctx context.Context, u *model.User) error
	List(ctx context.Context) ([]model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetTwoFactor(ctx context.Context, id uuid.UUID, secret *string, enabled bool) error
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users (email, password_hash, first_name, last_name, role, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, two_factor_enabled, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Phone, u.Address,
	).Scan(&u.ID, &u.IsActive, &u.TwoFactorEnabled, &u.CreatedAt, &u.UpdatedAt)
}

func (r *repo) List(ctx context.Context) ([]model.User, error) {
	const q = `
		SELECT id, email, password_hash, first_name, last_name, role, is_active,
		       phone, address, two_factor_enabled, two_factor_secret, created_at, updated_at
		FROM users
		ORDER BY created_at DESC`
	var out []model.User
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, email, password_hash, first_name, last_name, role, is_active,
		       phone, address, two_factor_enabled, two_factor_secret, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)`
	u := &model.User{}
	if err := r.db.GetContext(ctx, u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
		SELECT id, email, password_hash, first_name, last_name, role, is_active,
		       phone, address, two_factor_enabled, two_factor_secret, created_at, updated_at
		FROM users
		WHERE id = $1`
	u := &model.User{}
	if err := r.db.GetContext(ctx, u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *repo) Update(ctx context.Context, u *model.User) error {
	const q = `
		UPDATE users
		SET first_name = $2, last_name = $3, role = $4, is_active = $5,
		    phone = $6, address = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, q,
		u.ID, u.FirstName, u.LastName, u.Role, u.IsActive, u.Phone, u.Address,
	).Scan(&u.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) SetTwoFactor(ctx context.Context, id uuid.UUID, secret *string, enabled bool) error {
	const q = `
		UPDATE users
		SET two_factor_secret = $2,
		    two_factor_enabled = $3,
		    updated_at = NOW()
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, secret, enabled)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
