package loanrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/model"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var dialect = goqu.Dialect("postgres")

// ListFilter narrows List; zero values mean "no constraint".
type ListFilter struct {
	UserID uuid.UUID
	Status model.LoanStatus
}

type Repo interface {
	Insert(ctx context.Context, tx *sqlx.Tx, l *model.Loan) error
	LockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Loan, error)
	DetailByID(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error)
	List(ctx context.Context, f ListFilter) ([]model.LoanDetail, error)

	CountActiveByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (int64, error)

	// OpenByCopy returns the copy's ACTIVE or OVERDUE loan, nil if none.
	OpenByCopy(ctx context.Context, q sqlx.ExtContext, copyID uuid.UUID) (*model.Loan, error)

	MarkReturned(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, returnDate time.Time, fine int64) error
	MarkOverdue(ctx context.Context, tx *sqlx.Tx, now time.Time) (int64, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	DeleteByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (int64, error)

	Stats(ctx context.Context) (*model.LoanStats, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db} }

const loanCols = `id, user_id, copy_id, loan_date, due_date, return_date, status, fine, notes,
	created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *sqlx.Tx, l *model.Loan) error {
	const q = `
		INSERT INTO loans (user_id, copy_id, loan_date, due_date, status, fine, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowxContext(ctx, q,
		l.UserID, l.CopyID, l.LoanDate, l.DueDate, l.Status, l.Fine, l.Notes,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *repo) LockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Loan, error) {
	const q = `SELECT ` + loanCols + ` FROM loans WHERE id = $1 FOR UPDATE`
	l := &model.Loan{}
	if err := tx.GetContext(ctx, l, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

const detailQuery = `
	SELECT l.id, l.user_id, l.copy_id, l.loan_date, l.due_date, l.return_date,
	       l.status, l.fine, l.notes, l.created_at, l.updated_at,
	       c.code    AS copy_code,
	       b.id      AS book_id,
	       b.title   AS book_title,
	       u.email   AS user_email,
	       u.first_name || ' ' || u.last_name AS user_name
	FROM loans l
	JOIN copies c ON c.id = l.copy_id
	JOIN books b  ON b.id = c.book_id
	JOIN users u  ON u.id = l.user_id`

func (r *repo) DetailByID(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error) {
	const q = detailQuery + ` WHERE l.id = $1`
	d := &model.LoanDetail{}
	if err := r.db.GetContext(ctx, d, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]model.LoanDetail, error) {
	ds := dialect.From(goqu.T("loans").As("l")).
		Select(
			goqu.I("l.id"), goqu.I("l.user_id"), goqu.I("l.copy_id"),
			goqu.I("l.loan_date"), goqu.I("l.due_date"), goqu.I("l.return_date"),
			goqu.I("l.status"), goqu.I("l.fine"), goqu.I("l.notes"),
			goqu.I("l.created_at"), goqu.I("l.updated_at"),
			goqu.I("c.code").As("copy_code"),
			goqu.I("b.id").As("book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("u.email").As("user_email"),
			goqu.L("u.first_name || ' ' || u.last_name").As("user_name"),
		).
		Join(goqu.T("copies").As("c"), goqu.On(goqu.Ex{"c.id": goqu.I("l.copy_id")})).
		Join(goqu.T("books").As("b"), goqu.On(goqu.Ex{"b.id": goqu.I("c.book_id")})).
		Join(goqu.T("users").As("u"), goqu.On(goqu.Ex{"u.id": goqu.I("l.user_id")})).
		Order(goqu.I("l.created_at").Desc())

	if f.UserID != uuid.Nil {
		ds = ds.Where(goqu.I("l.user_id").Eq(f.UserID.String()))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.I("l.status").Eq(string(f.Status)))
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var out []model.LoanDetail
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) CountActiveByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status = 'ACTIVE'`
	var n int64
	err := sqlx.GetContext(ctx, q, &n, stmt, userID)
	return n, err
}

func (r *repo) OpenByCopy(ctx context.Context, q sqlx.ExtContext, copyID uuid.UUID) (*model.Loan, error) {
	const stmt = `
		SELECT ` + loanCols + `
		FROM loans
		WHERE copy_id = $1 AND status IN ('ACTIVE', 'OVERDUE')
		LIMIT 1`
	l := &model.Loan{}
	if err := sqlx.GetContext(ctx, q, l, stmt, copyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, returnDate time.Time, fine int64) error {
	const q = `
		UPDATE loans
		SET status = 'RETURNED',
		    return_date = $2,
		    fine = $3,
		    updated_at = NOW()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, returnDate, fine)
	return err
}

func (r *repo) MarkOverdue(ctx context.Context, tx *sqlx.Tx, now time.Time) (int64, error) {
	const q = `
		UPDATE loans
		SET status = 'OVERDUE', updated_at = NOW()
		WHERE status = 'ACTIVE' AND due_date < $1`
	res, err := tx.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

func (r *repo) Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) DeleteByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE copy_id = $1`, copyID)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

func (r *repo) Stats(ctx context.Context) (*model.LoanStats, error) {
	const q = `
		SELECT COUNT(*)                                        AS total,
		       COUNT(*) FILTER (WHERE status = 'ACTIVE')       AS active,
		       COUNT(*) FILTER (WHERE status = 'OVERDUE')      AS overdue,
		       COUNT(*) FILTER (WHERE status = 'RETURNED')     AS returned
		FROM loans`
	var s model.LoanStats
	if err := r.db.QueryRowxContext(ctx, q).Scan(&s.Total, &s.Active, &s.Overdue, &s.Returned); err != nil {
		return nil, err
	}
	return &s, nil
}
