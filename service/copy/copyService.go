package copysvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/model"
	bookrepo "librarium/repository/book"
	copyrepo "librarium/repository/copy"
	loanrepo "librarium/repository/loan"
	reservationrepo "librarium/repository/reservation"
	"librarium/util/apperr"
	"librarium/util/database"
)

type Service interface {
	Create(ctx context.Context, req model.CreateCopyReq) (*model.Copy, error)
	List(ctx context.Context) ([]model.CopyWithBook, error)
	ListAvailable(ctx context.Context) ([]model.CopyWithBook, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Copy, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateCopyReq) (*model.Copy, error)

	// UpdateStatus is the mechanical status write. The business legality
	// of a transition is enforced by the loan/reservation coordinators;
	// this layer only refuses unknown statuses and missing copies.
	// Setting DELETED runs the deletion cascade instead.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.CopyStatus) (*model.Copy, error)

	Availability(ctx context.Context, id uuid.UUID) (*model.Availability, error)

	// Remove applies the cascade deletion policy: cancel pending
	// reservations, drop loan rows, then soft-delete the copy when
	// reservation history remains (hard-delete otherwise).
	Remove(ctx context.Context, id uuid.UUID) error
}

type service struct {
	txr database.TxRunner
	cr  copyrepo.Repo
	br  bookrepo.Repo
	lr  loanrepo.Repo
	rr  reservationrepo.Repo
}

func New(txr database.TxRunner, cr copyrepo.Repo, br bookrepo.Repo, lr loanrepo.Repo, rr reservationrepo.Repo) Service {
	return &service{txr: txr, cr: cr, br: br, lr: lr, rr: rr}
}

func (s *service) Create(ctx context.Context, req model.CreateCopyReq) (*model.Copy, error) {
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid book id")
	}

	existing, err := s.cr.ByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("copy with this code already exists")
	}

	book, err := s.br.ByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperr.NotFound("book not found")
	}

	c := &model.Copy{
		Code:   req.Code,
		BookID: bookID,
		Status: model.CopyAvailable,
	}
	if err := s.cr.Create(ctx, c); err != nil {
		return nil, apperr.FromPg(err, "copy with this code already exists")
	}
	return c, nil
}

func (s *service) List(ctx context.Context) ([]model.CopyWithBook, error) {
	return s.cr.List(ctx)
}

func (s *service) ListAvailable(ctx context.Context) ([]model.CopyWithBook, error) {
	return s.cr.ListAvailable(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Copy, error) {
	c, err := s.cr.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("copy not found")
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req model.UpdateCopyReq) (*model.Copy, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil && *req.Code != c.Code {
		existing, err := s.cr.ByCode(ctx, *req.Code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict("copy with this code already exists")
		}
		c.Code = *req.Code
	}
	if req.BookID != nil {
		bookID, err := uuid.Parse(*req.BookID)
		if err != nil {
			return nil, apperr.InvalidInput("invalid book id")
		}
		if bookID != c.BookID {
			book, err := s.br.ByID(ctx, bookID)
			if err != nil {
				return nil, err
			}
			if book == nil {
				return nil, apperr.NotFound("book not found")
			}
			c.BookID = bookID
		}
	}

	if err := s.cr.Update(ctx, c); err != nil {
		return nil, apperr.FromPg(err, "copy with this code already exists")
	}
	return c, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CopyStatus) (*model.Copy, error) {
	if !model.IsValidCopyStatus(status) {
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown copy status: %s", status)
	}
	if status == model.CopyDeleted {
		if err := s.Remove(ctx, id); err != nil {
			return nil, err
		}
		return &model.Copy{ID: id, Status: model.CopyDeleted}, nil
	}

	var c *model.Copy
	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		c, err = s.cr.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("copy not found")
		}
		if err := s.cr.SetStatus(ctx, tx, id, status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("copy not found")
			}
			return err
		}
		c.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Availability(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.Availability{
		Status:      c.Status,
		IsAvailable: c.Status == model.CopyAvailable,
		IsReserved:  c.Status == model.CopyReserved,
		IsBorrowed:  c.Status == model.CopyBorrowed,
	}, nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		c, err := s.cr.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("copy not found")
		}

		// cascade: pending holds become CANCELLED (no status release,
		// the copy is going away) and loan rows are dropped with it
		if _, err := s.rr.CancelPendingByCopy(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.lr.DeleteByCopy(ctx, tx, id); err != nil {
			return err
		}

		// reservation history keeps the copy id addressable, so the row
		// is only soft-deleted while any reservation references it
		refs, err := s.rr.CountByCopy(ctx, tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return s.cr.SetStatus(ctx, tx, id, model.CopyDeleted)
		}
		return s.cr.DeleteRow(ctx, tx, id)
	})
}
