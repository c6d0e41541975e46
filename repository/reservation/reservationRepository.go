package reservationrepo

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
	Status model.ReservationStatus
}

type Repo interface {
	Insert(ctx context.Context, tx *sqlx.Tx, res *model.Reservation) error
	LockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Reservation, error)
	DetailByID(ctx context.Context, id uuid.UUID) (*model.ReservationDetail, error)
	List(ctx context.Context, f ListFilter) ([]model.ReservationDetail, error)

	// PendingByCopy returns the copy's PENDING reservation, nil if none.
	// Inside a transaction the row is read FOR UPDATE by LockPendingByCopy.
	PendingByCopy(ctx context.Context, q sqlx.ExtContext, copyID uuid.UUID) (*model.Reservation, error)
	LockPendingByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (*model.Reservation, error)

	CountPendingByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (int64, error)

	SetStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status model.ReservationStatus) error

	// LockExpired returns PENDING reservations past their expiration,
	// FOR UPDATE, for the idempotent expiration sweep.
	LockExpired(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]model.Reservation, error)

	// CancelPendingByCopy flips every PENDING reservation on the copy to
	// CANCELLED (deletion cascade; the copy status is not released).
	CancelPendingByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (int64, error)

	CountByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (int64, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error

	Stats(ctx context.Context) (*model.ReservationStats, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db} }

const resCols = `id, user_id, copy_id, reservation_date, expiration_date, status,
	created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *sqlx.Tx, res *model.Reservation) error {
	const q = `
		INSERT INTO reservations (user_id, copy_id, reservation_date, expiration_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowxContext(ctx, q,
		res.UserID, res.CopyID, res.ReservationDate, res.ExpirationDate, res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *repo) LockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Reservation, error) {
	const q = `SELECT ` + resCols + ` FROM reservations WHERE id = $1 FOR UPDATE`
	res := &model.Reservation{}
	if err := tx.GetContext(ctx, res, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

const detailQuery = `
	SELECT r.id, r.user_id, r.copy_id, r.reservation_date, r.expiration_date,
	       r.status, r.created_at, r.updated_at,
	       c.code    AS copy_code,
	       b.id      AS book_id,
	       b.title   AS book_title,
	       u.email   AS user_email,
	       u.first_name || ' ' || u.last_name AS user_name
	FROM reservations r
	JOIN copies c ON c.id = r.copy_id
	JOIN books b  ON b.id = c.book_id
	JOIN users u  ON u.id = r.user_id`

func (r *repo) DetailByID(ctx context.Context, id uuid.UUID) (*model.ReservationDetail, error) {
	const q = detailQuery + ` WHERE r.id = $1`
	d := &model.ReservationDetail{}
	if err := r.db.GetContext(ctx, d, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]model.ReservationDetail, error) {
	ds := dialect.From(goqu.T("reservations").As("r")).
		Select(
			goqu.I("r.id"), goqu.I("r.user_id"), goqu.I("r.copy_id"),
			goqu.I("r.reservation_date"), goqu.I("r.expiration_date"),
			goqu.I("r.status"), goqu.I("r.created_at"), goqu.I("r.updated_at"),
			goqu.I("c.code").As("copy_code"),
			goqu.I("b.id").As("book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("u.email").As("user_email"),
			goqu.L("u.first_name || ' ' || u.last_name").As("user_name"),
		).
		Join(goqu.T("copies").As("c"), goqu.On(goqu.Ex{"c.id": goqu.I("r.copy_id")})).
		Join(goqu.T("books").As("b"), goqu.On(goqu.Ex{"b.id": goqu.I("c.book_id")})).
		Join(goqu.T("users").As("u"), goqu.On(goqu.Ex{"u.id": goqu.I("r.user_id")})).
		Order(goqu.I("r.reservation_date").Desc())

	if f.UserID != uuid.Nil {
		ds = ds.Where(goqu.I("r.user_id").Eq(f.UserID.String()))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.I("r.status").Eq(string(f.Status)))
		if f.Status == model.ReservationPending {
			ds = ds.Order(goqu.I("r.reservation_date").Asc())
		}
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var out []model.ReservationDetail
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) PendingByCopy(ctx context.Context, q sqlx.ExtContext, copyID uuid.UUID) (*model.Reservation, error) {
	const stmt = `
		SELECT ` + resCols + `
		FROM reservations
		WHERE copy_id = $1 AND status = 'PENDING'
		LIMIT 1`
	return r.pendingByCopy(ctx, q, copyID, stmt)
}

func (r *repo) LockPendingByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (*model.Reservation, error) {
	const stmt = `
		SELECT ` + resCols + `
		FROM reservations
		WHERE copy_id = $1 AND status = 'PENDING'
		LIMIT 1
		FOR UPDATE`
	return r.pendingByCopy(ctx, tx, copyID, stmt)
}

func (r *repo) pendingByCopy(ctx context.Context, q sqlx.ExtContext, copyID uuid.UUID, stmt string) (*model.Reservation, error) {
	res := &model.Reservation{}
	if err := sqlx.GetContext(ctx, q, res, stmt, copyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (r *repo) CountPendingByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM reservations WHERE user_id = $1 AND status = 'PENDING'`
	var n int64
	err := sqlx.GetContext(ctx, q, &n, stmt, userID)
	return n, err
}

func (r *repo) SetStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status model.ReservationStatus) error {
	const stmt = `
		UPDATE reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1`
	res, err := q.ExecContext(ctx, stmt, id, status)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) LockExpired(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]model.Reservation, error) {
	const q = `
		SELECT ` + resCols + `
		FROM reservations
		WHERE status = 'PENDING' AND expiration_date < $1
		ORDER BY expiration_date
		FOR UPDATE`
	var out []model.Reservation
	if err := tx.SelectContext(ctx, &out, q, now); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) CancelPendingByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (int64, error) {
	const q = `
		UPDATE reservations
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE copy_id = $1 AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, q, copyID)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

func (r *repo) CountByCopy(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) (int64, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE copy_id = $1`
	var n int64
	err := tx.GetContext(ctx, &n, q, copyID)
	return n, err
}

func (r *repo) Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Stats(ctx context.Context) (*model.ReservationStats, error) {
	const q = `
		SELECT COUNT(*)                                         AS total,
		       COUNT(*) FILTER (WHERE status = 'PENDING')       AS pending,
		       COUNT(*) FILTER (WHERE status = 'FULFILLED')     AS fulfilled,
		       COUNT(*) FILTER (WHERE status = 'CANCELLED')     AS cancelled,
		       COUNT(*) FILTER (WHERE status = 'EXPIRED')       AS expired
		FROM reservations`
	var s model.ReservationStats
	if err := r.db.QueryRowxContext(ctx, q).
		Scan(&s.Total, &s.Pending, &s.Fulfilled, &s.Cancelled, &s.Expired); err != nil {
		return nil, err
	}
	return &s, nil
}
