package loansvc

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/model"
	copyrepo "librarium/repository/copy"
	loanrepo "librarium/repository/loan"
	reservationrepo "librarium/repository/reservation"
	"librarium/util/apperr"
	"librarium/util/clock"
	"librarium/util/database"
)

const (
	LoanDuration     = 14 * 24 * time.Hour
	MaxActivePerUser = 3

	// FinePerDay is the late-return penalty per started day, in currency
	// minor units. Computed and stored only, never collected.
	FinePerDay int64 = 1000
)

// ReservationFulfiller lets a loan honor the borrower's own pending
// reservation inside the loan's transaction.
type ReservationFulfiller interface {
	FulfillInTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Reservation, error)
}

type Service interface {
	// Create borrows a copy. A pending reservation held by someone else
	// blocks the loan; the requester's own reservation is fulfilled as
	// part of the same transaction.
	Create(ctx context.Context, userID, copyID uuid.UUID, notes *string) (*model.LoanDetail, error)

	Get(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error)
	List(ctx context.Context, f loanrepo.ListFilter) ([]model.LoanDetail, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.LoanDetail, error)

	// Return closes an ACTIVE or OVERDUE loan, computes the fine, and
	// releases the copy.
	Return(ctx context.Context, id uuid.UUID) (*model.Loan, error)

	// MarkOverdue flips ACTIVE loans past their due date to OVERDUE.
	// Copy status is untouched; a borrowed copy stays BORROWED.
	MarkOverdue(ctx context.Context) (int64, error)

	// Remove hard-deletes a loan record, releasing the copy first when
	// the loan is still open.
	Remove(ctx context.Context, id uuid.UUID) error

	Stats(ctx context.Context) (*model.LoanStats, error)
}

type service struct {
	txr  database.TxRunner
	lr   loanrepo.Repo
	rr   reservationrepo.Repo
	cr   copyrepo.Repo
	resf ReservationFulfiller
	clk  clock.Clock
}

func New(txr database.TxRunner, lr loanrepo.Repo, rr reservationrepo.Repo, cr copyrepo.Repo, resf ReservationFulfiller, clk clock.Clock) Service {
	return &service{txr: txr, lr: lr, rr: rr, cr: cr, resf: resf, clk: clk}
}

func (s *service) Create(ctx context.Context, userID, copyID uuid.UUID, notes *string) (*model.LoanDetail, error) {
	var created model.Loan

	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		cp, err := s.cr.LockByID(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if cp == nil {
			return apperr.NotFound("copy not found")
		}

		pending, err := s.rr.LockPendingByCopy(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if pending != nil {
			if pending.UserID != userID {
				return apperr.InvalidState("copy is reserved by another user")
			}
			if _, err := s.resf.FulfillInTx(ctx, tx, pending.ID); err != nil {
				return err
			}
		} else if cp.Status != model.CopyAvailable {
			return apperr.Newf(apperr.KindInvalidState,
				"copy is not available for loan, current status: %s", cp.Status)
		}

		active, err := s.lr.CountActiveByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active >= MaxActivePerUser {
			return apperr.Newf(apperr.KindLimitExceeded,
				"user has reached maximum active loans (%d)", MaxActivePerUser)
		}

		now := s.clk.Now()
		created = model.Loan{
			UserID:   userID,
			CopyID:   copyID,
			LoanDate: now,
			DueDate:  now.Add(LoanDuration),
			Status:   model.LoanActive,
			Notes:    notes,
		}
		if err := s.lr.Insert(ctx, tx, &created); err != nil {
			return err
		}
		return s.cr.SetStatus(ctx, tx, copyID, model.CopyBorrowed)
	})
	if err != nil {
		return nil, err
	}
	return s.lr.DetailByID(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error) {
	d, err := s.lr.DetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("loan not found")
	}
	return d, nil
}

func (s *service) List(ctx context.Context, f loanrepo.ListFilter) ([]model.LoanDetail, error) {
	return s.lr.List(ctx, f)
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]model.LoanDetail, error) {
	return s.lr.List(ctx, loanrepo.ListFilter{UserID: userID})
}

func (s *service) Return(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var out *model.Loan
	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		l, err := s.lr.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return apperr.NotFound("loan not found")
		}
		if l.Status != model.LoanActive && l.Status != model.LoanOverdue {
			return apperr.Newf(apperr.KindInvalidState,
				"loan cannot be returned, current status: %s", l.Status)
		}

		now := s.clk.Now()
		fine := Fine(l.DueDate, now)
		if err := s.lr.MarkReturned(ctx, tx, id, now, fine); err != nil {
			return err
		}
		if err := s.cr.SetStatus(ctx, tx, l.CopyID, model.CopyAvailable); err != nil {
			return err
		}

		l.Status = model.LoanReturned
		l.ReturnDate = &now
		l.Fine = fine
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fine charges FinePerDay for every started day past the due date.
// Returning exactly at the due date costs nothing.
func Fine(dueDate, returnDate time.Time) int64 {
	if !returnDate.After(dueDate) {
		return 0
	}
	days := int64(math.Ceil(returnDate.Sub(dueDate).Hours() / 24))
	return days * FinePerDay
}

func (s *service) MarkOverdue(ctx context.Context) (int64, error) {
	var count int64
	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		count, err = s.lr.MarkOverdue(ctx, tx, s.clk.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		l, err := s.lr.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return apperr.NotFound("loan not found")
		}
		// release the copy before dropping an open loan so it never
		// stays BORROWED with no loan behind it
		if l.Status == model.LoanActive || l.Status == model.LoanOverdue {
			if err := s.cr.SetStatus(ctx, tx, l.CopyID, model.CopyAvailable); err != nil {
				return err
			}
		}
		return s.lr.Delete(ctx, tx, id)
	})
}

func (s *service) Stats(ctx context.Context) (*model.LoanStats, error) {
	return s.lr.Stats(ctx)
}
