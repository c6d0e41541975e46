package reservationsvc

import (
	"context"
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
	// How long a hold stays valid when the caller doesn't pick a date.
	ReservationDuration = 48 * time.Hour

	MaxPendingPerUser = 3
)

type Service interface {
	// Create places a hold on an AVAILABLE copy. A privileged caller may
	// supply a custom expiration; it must be in the future.
	Create(ctx context.Context, userID, copyID uuid.UUID, expiration *time.Time) (*model.ReservationDetail, error)

	Get(ctx context.Context, id uuid.UUID) (*model.ReservationDetail, error)
	List(ctx context.Context) ([]model.ReservationDetail, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.ReservationDetail, error)
	ListPending(ctx context.Context) ([]model.ReservationDetail, error)

	// Fulfill confirms the pickup at the counter. The copy goes back to
	// AVAILABLE; the loan created right after re-marks it BORROWED.
	Fulfill(ctx context.Context, id uuid.UUID) (*model.Reservation, error)

	// FulfillInTx is Fulfill running inside the caller's transaction, so
	// a reservation handoff commits atomically with the loan it enables.
	FulfillInTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Reservation, error)

	// Cancel releases a PENDING hold. actingUserID == uuid.Nil bypasses
	// the ownership check (staff caller).
	Cancel(ctx context.Context, id, actingUserID uuid.UUID) (*model.Reservation, error)

	// Expire sweeps PENDING reservations past their expiration date.
	// Idempotent; returns the number processed.
	Expire(ctx context.Context) (int64, error)

	// Remove hard-deletes a reservation record regardless of status and
	// re-derives the copy's status from whatever obligation survives.
	Remove(ctx context.Context, id, actingUserID uuid.UUID) error

	Stats(ctx context.Context) (*model.ReservationStats, error)
}

type service struct {
	txr database.TxRunner
	rr  reservationrepo.Repo
	cr  copyrepo.Repo
	lr  loanrepo.Repo
	clk clock.Clock
}

func New(txr database.TxRunner, rr reservationrepo.Repo, cr copyrepo.Repo, lr loanrepo.Repo, clk clock.Clock) Service {
	return &service{txr: txr, rr: rr, cr: cr, lr: lr, clk: clk}
}

func (s *service) Create(ctx context.Context, userID, copyID uuid.UUID, expiration *time.Time) (*model.ReservationDetail, error) {
	var created model.Reservation

	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		cp, err := s.cr.LockByID(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if cp == nil {
			return apperr.NotFound("copy not found")
		}
		if cp.Status != model.CopyAvailable {
			return apperr.Newf(apperr.KindInvalidState,
				"copy is not available for reservation, current status: %s", cp.Status)
		}

		pending, err := s.rr.CountPendingByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if pending >= MaxPendingPerUser {
			return apperr.Newf(apperr.KindLimitExceeded,
				"user has reached maximum pending reservations (%d)", MaxPendingPerUser)
		}

		existing, err := s.rr.PendingByCopy(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("copy already has a pending reservation")
		}

		now := s.clk.Now()
		expiresAt := now.Add(ReservationDuration)
		if expiration != nil {
			expiresAt = *expiration
		}
		if !expiresAt.After(now) {
			return apperr.InvalidInput("expiration date must be in the future")
		}

		created = model.Reservation{
			UserID:          userID,
			CopyID:          copyID,
			ReservationDate: now,
			ExpirationDate:  expiresAt,
			Status:          model.ReservationPending,
		}
		if err := s.rr.Insert(ctx, tx, &created); err != nil {
			// partial unique index on (copy_id) WHERE status = 'PENDING'
			return apperr.FromPg(err, "copy already has a pending reservation")
		}
		return s.cr.SetStatus(ctx, tx, copyID, model.CopyReserved)
	})
	if err != nil {
		return nil, err
	}
	return s.rr.DetailByID(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.ReservationDetail, error) {
	d, err := s.rr.DetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("reservation not found")
	}
	return d, nil
}

func (s *service) List(ctx context.Context) ([]model.ReservationDetail, error) {
	return s.rr.List(ctx, reservationrepo.ListFilter{})
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]model.ReservationDetail, error) {
	return s.rr.List(ctx, reservationrepo.ListFilter{UserID: userID})
}

func (s *service) ListPending(ctx context.Context) ([]model.ReservationDetail, error) {
	return s.rr.List(ctx, reservationrepo.ListFilter{Status: model.ReservationPending})
}

func (s *service) Fulfill(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var out *model.Reservation
	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		out, err = s.FulfillInTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) FulfillInTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.rr.LockByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.NotFound("reservation not found")
	}
	if res.Status.Terminal() {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"cannot fulfill reservation with status: %s", res.Status)
	}
	if s.clk.Now().After(res.ExpirationDate) {
		return nil, apperr.InvalidState("reservation has expired")
	}

	if err := s.rr.SetStatus(ctx, tx, id, model.ReservationFulfilled); err != nil {
		return nil, err
	}
	if err := s.cr.SetStatus(ctx, tx, res.CopyID, model.CopyAvailable); err != nil {
		return nil, err
	}
	res.Status = model.ReservationFulfilled
	return res, nil
}

func (s *service) Cancel(ctx context.Context, id, actingUserID uuid.UUID) (*model.Reservation, error) {
	var out *model.Reservation
	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		res, err := s.rr.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return apperr.NotFound("reservation not found")
		}
		if actingUserID != uuid.Nil && res.UserID != actingUserID {
			return apperr.InvalidState("you can only cancel your own reservations")
		}
		if res.Status.Terminal() {
			return apperr.Newf(apperr.KindInvalidState,
				"cannot cancel reservation with status: %s", res.Status)
		}

		if err := s.rr.SetStatus(ctx, tx, id, model.ReservationCancelled); err != nil {
			return err
		}
		if err := s.cr.SetStatus(ctx, tx, res.CopyID, model.CopyAvailable); err != nil {
			return err
		}
		res.Status = model.ReservationCancelled
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Expire(ctx context.Context) (int64, error) {
	var count int64
	err := s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		expired, err := s.rr.LockExpired(ctx, tx, s.clk.Now())
		if err != nil {
			return err
		}
		for _, res := range expired {
			if err := s.rr.SetStatus(ctx, tx, res.ID, model.ReservationExpired); err != nil {
				return err
			}
			if err := s.cr.SetStatus(ctx, tx, res.CopyID, model.CopyAvailable); err != nil {
				return err
			}
		}
		count = int64(len(expired))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *service) Remove(ctx context.Context, id, actingUserID uuid.UUID) error {
	return s.txr.InTx(ctx, func(tx *sqlx.Tx) error {
		res, err := s.rr.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return apperr.NotFound("reservation not found")
		}
		if actingUserID != uuid.Nil && res.UserID != actingUserID {
			return apperr.InvalidState("you can only delete your own reservations")
		}

		if err := s.rr.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.rederiveCopyStatus(ctx, tx, res.CopyID)
	})
}

// rederiveCopyStatus recomputes the copy's status from the surviving
// open loan / pending reservation instead of unconditionally releasing
// it. Removing a stale terminal record must not free a copy that a
// newer reservation or loan legitimately holds.
func (s *service) rederiveCopyStatus(ctx context.Context, tx *sqlx.Tx, copyID uuid.UUID) error {
	cp, err := s.cr.LockByID(ctx, tx, copyID)
	if err != nil {
		return err
	}
	if cp == nil {
		// copy already soft-deleted; nothing to release
		return nil
	}
	switch cp.Status {
	case model.CopyMaintenance, model.CopyLost:
		// manual states are not obligation-derived
		return nil
	}

	want := model.CopyAvailable
	open, err := s.lr.OpenByCopy(ctx, tx, copyID)
	if err != nil {
		return err
	}
	if open != nil {
		want = model.CopyBorrowed
	} else {
		pending, err := s.rr.PendingByCopy(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if pending != nil {
			want = model.CopyReserved
		}
	}

	if want == cp.Status {
		return nil
	}
	return s.cr.SetStatus(ctx, tx, copyID, want)
}

func (s *service) Stats(ctx context.Context) (*model.ReservationStats, error) {
	return s.rr.Stats(ctx)
}
