package copyrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/model"
)

// DELETED rows are invisible to every method here except DeleteRow and
// SetStatus-with-DELETED; a soft-deleted copy stays addressable only
// through historical loan/reservation joins.
type Repo interface {
	Create(ctx context.Context, c *model.Copy) error
	List(ctx context.Context) ([]model.CopyWithBook, error)
	ListAvailable(ctx context.Context) ([]model.CopyWithBook, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.Copy, error)
	ByCode(ctx context.Context, code string) (*model.Copy, error)
	Update(ctx context.Context, c *model.Copy) error

	// LockByID reads the copy row FOR UPDATE so the caller's
	// check-then-act sequence commits atomically.
	LockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Copy, error)

	// SetStatus is the mechanical status write; legality of the
	// transition is the caller's concern. Absent or DELETED rows
	// report sql.ErrNoRows.
	SetStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status model.CopyStatus) error

	// DeleteRow hard-removes the copy (only used when no history
	// references it).
	DeleteRow(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db} }

const copyCols = `id, code, book_id, status, created_at, updated_at`

const withBookQuery = `
	SELECT c.id, c.code, c.book_id, c.status, c.created_at, c.updated_at,
	       b.isbn  AS book_isbn,
	       b.title AS book_title,
	       b.author AS book_author
	FROM copies c
	JOIN books b ON b.id = c.book_id`

func (r *repo) Create(ctx context.Context, c *model.Copy) error {
	const q = `
		INSERT INTO copies (code, book_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, c.Code, c.BookID, c.Status).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *repo) List(ctx context.Context) ([]model.CopyWithBook, error) {
	const q = withBookQuery + `
	WHERE c.status <> 'DELETED'
	ORDER BY c.created_at DESC`
	var out []model.CopyWithBook
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ListAvailable(ctx context.Context) ([]model.CopyWithBook, error) {
	const q = withBookQuery + `
	WHERE c.status = 'AVAILABLE'
	ORDER BY c.created_at DESC`
	var out []model.CopyWithBook
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.Copy, error) {
	const q = `SELECT ` + copyCols + ` FROM copies WHERE id = $1 AND status <> 'DELETED'`
	c := &model.Copy{}
	if err := r.db.GetContext(ctx, c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *repo) ByCode(ctx context.Context, code string) (*model.Copy, error) {
	const q = `SELECT ` + copyCols + ` FROM copies WHERE code = $1 AND status <> 'DELETED'`
	c := &model.Copy{}
	if err := r.db.GetContext(ctx, c, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *repo) Update(ctx context.Context, c *model.Copy) error {
	const q = `
		UPDATE copies
		SET code = $2, book_id = $3, updated_at = NOW()
		WHERE id = $1 AND status <> 'DELETED'
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, q, c.ID, c.Code, c.BookID).Scan(&c.UpdatedAt)
}

func (r *repo) LockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Copy, error) {
	const q = `SELECT ` + copyCols + ` FROM copies WHERE id = $1 AND status <> 'DELETED' FOR UPDATE`
	c := &model.Copy{}
	if err := tx.GetContext(ctx, c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *repo) SetStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status model.CopyStatus) error {
	const stmt = `
		UPDATE copies
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'DELETED'`
	res, err := q.ExecContext(ctx, stmt, id, status)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) DeleteRow(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM copies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
