package loansvc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"librarium/model"
	copyrepo "librarium/repository/copy"
	loanrepo "librarium/repository/loan"
	reservationrepo "librarium/repository/reservation"
	"librarium/util/apperr"
	"librarium/util/clock"
	"librarium/util/database"
)

type copyRepoMock struct {
	copyrepo.Repo
	lockByID  func(id uuid.UUID) (*model.Copy, error)
	setStatus func(id uuid.UUID, status model.CopyStatus) error
}

func (m *copyRepoMock) LockByID(_ context.Context, _ *sqlx.Tx, id uuid.UUID) (*model.Copy, error) {
	return m.lockByID(id)
}

func (m *copyRepoMock) SetStatus(_ context.Context, _ sqlx.ExtContext, id uuid.UUID, status model.CopyStatus) error {
	return m.setStatus(id, status)
}

type loanRepoMock struct {
	loanrepo.Repo
	insert            func(l *model.Loan) error
	lockByID          func(id uuid.UUID) (*model.Loan, error)
	detailByID        func(id uuid.UUID) (*model.LoanDetail, error)
	countActiveByUser func(userID uuid.UUID) (int64, error)
	markReturned      func(id uuid.UUID, returnDate time.Time, fine int64) error
	markOverdue       func(now time.Time) (int64, error)
	delete            func(id uuid.UUID) error
}

func (m *loanRepoMock) Insert(_ context.Context, _ *sqlx.Tx, l *model.Loan) error {
	return m.insert(l)
}

func (m *loanRepoMock) LockByID(_ context.Context, _ *sqlx.Tx, id uuid.UUID) (*model.Loan, error) {
	return m.lockByID(id)
}

func (m *loanRepoMock) DetailByID(_ context.Context, id uuid.UUID) (*model.LoanDetail, error) {
	return m.detailByID(id)
}

func (m *loanRepoMock) CountActiveByUser(_ context.Context, _ sqlx.ExtContext, userID uuid.UUID) (int64, error) {
	return m.countActiveByUser(userID)
}

func (m *loanRepoMock) MarkReturned(_ context.Context, _ *sqlx.Tx, id uuid.UUID, returnDate time.Time, fine int64) error {
	return m.markReturned(id, returnDate, fine)
}

func (m *loanRepoMock) MarkOverdue(_ context.Context, _ *sqlx.Tx, now time.Time) (int64, error) {
	return m.markOverdue(now)
}

func (m *loanRepoMock) Delete(_ context.Context, _ *sqlx.Tx, id uuid.UUID) error {
	return m.delete(id)
}

type reservationRepoMock struct {
	reservationrepo.Repo
	lockPendingByCopy func(copyID uuid.UUID) (*model.Reservation, error)
}

func (m *reservationRepoMock) LockPendingByCopy(_ context.Context, _ *sqlx.Tx, copyID uuid.UUID) (*model.Reservation, error) {
	return m.lockPendingByCopy(copyID)
}

type fulfillerMock struct {
	fulfill func(id uuid.UUID) (*model.Reservation, error)
}

func (m *fulfillerMock) FulfillInTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID) (*model.Reservation, error) {
	return m.fulfill(id)
}

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	userID := uuid.New()
	copyID := uuid.New()
	loanID := uuid.New()

	availableCopy := func(id uuid.UUID) (*model.Copy, error) {
		return &model.Copy{ID: id, Status: model.CopyAvailable}, nil
	}
	noPending := func(uuid.UUID) (*model.Reservation, error) { return nil, nil }

	t.Run("borrows an available copy for the loan window", func(t *testing.T) {
		var inserted model.Loan
		var copyStatus model.CopyStatus

		cr := &copyRepoMock{
			lockByID: availableCopy,
			setStatus: func(_ uuid.UUID, status model.CopyStatus) error {
				copyStatus = status
				return nil
			},
		}
		lr := &loanRepoMock{
			countActiveByUser: func(uuid.UUID) (int64, error) { return 0, nil },
			insert: func(l *model.Loan) error {
				l.ID = loanID
				inserted = *l
				return nil
			},
			detailByID: func(id uuid.UUID) (*model.LoanDetail, error) {
				return &model.LoanDetail{Loan: model.Loan{ID: id}}, nil
			},
		}
		rr := &reservationRepoMock{lockPendingByCopy: noPending}

		svc := New(database.NopTxRunner{}, lr, rr, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		detail, err := svc.Create(context.Background(), userID, copyID, nil)
		require.NoError(t, err)
		require.Equal(t, loanID, detail.ID)
		require.Equal(t, baseTime, inserted.LoanDate)
		require.Equal(t, baseTime.Add(LoanDuration), inserted.DueDate)
		require.Equal(t, model.LoanActive, inserted.Status)
		require.Equal(t, model.CopyBorrowed, copyStatus)
	})

	t.Run("the requester's own hold is fulfilled in the same transaction", func(t *testing.T) {
		resID := uuid.New()
		fulfilled := false

		cr := &copyRepoMock{
			lockByID: func(id uuid.UUID) (*model.Copy, error) {
				return &model.Copy{ID: id, Status: model.CopyReserved}, nil
			},
			setStatus: func(uuid.UUID, model.CopyStatus) error { return nil },
		}
		rr := &reservationRepoMock{
			lockPendingByCopy: func(uuid.UUID) (*model.Reservation, error) {
				return &model.Reservation{ID: resID, UserID: userID, CopyID: copyID}, nil
			},
		}
		resf := &fulfillerMock{
			fulfill: func(id uuid.UUID) (*model.Reservation, error) {
				require.Equal(t, resID, id)
				fulfilled = true
				return &model.Reservation{ID: id, Status: model.ReservationFulfilled}, nil
			},
		}
		lr := &loanRepoMock{
			countActiveByUser: func(uuid.UUID) (int64, error) { return 0, nil },
			insert:            func(l *model.Loan) error { l.ID = loanID; return nil },
			detailByID: func(id uuid.UUID) (*model.LoanDetail, error) {
				return &model.LoanDetail{Loan: model.Loan{ID: id}}, nil
			},
		}

		svc := New(database.NopTxRunner{}, lr, rr, cr, resf, clock.NewFake(baseTime))
		_, err := svc.Create(context.Background(), userID, copyID, nil)
		require.NoError(t, err)
		require.True(t, fulfilled)
	})

	t.Run("someone else's hold blocks the loan", func(t *testing.T) {
		cr := &copyRepoMock{
			lockByID: func(id uuid.UUID) (*model.Copy, error) {
				return &model.Copy{ID: id, Status: model.CopyReserved}, nil
			},
		}
		rr := &reservationRepoMock{
			lockPendingByCopy: func(uuid.UUID) (*model.Reservation, error) {
				return &model.Reservation{ID: uuid.New(), UserID: uuid.New()}, nil
			},
		}
		svc := New(database.NopTxRunner{}, &loanRepoMock{}, rr, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		_, err := svc.Create(context.Background(), userID, copyID, nil)
		require.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
		require.EqualError(t, err, "copy is reserved by another user")
	})

	t.Run("copy not available and no hold to honor", func(t *testing.T) {
		cr := &copyRepoMock{
			lockByID: func(id uuid.UUID) (*model.Copy, error) {
				return &model.Copy{ID: id, Status: model.CopyMaintenance}, nil
			},
		}
		rr := &reservationRepoMock{lockPendingByCopy: noPending}
		svc := New(database.NopTxRunner{}, &loanRepoMock{}, rr, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		_, err := svc.Create(context.Background(), userID, copyID, nil)
		require.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("active loan cap", func(t *testing.T) {
		cr := &copyRepoMock{lockByID: availableCopy}
		rr := &reservationRepoMock{lockPendingByCopy: noPending}
		lr := &loanRepoMock{
			countActiveByUser: func(uuid.UUID) (int64, error) { return MaxActivePerUser, nil },
		}
		svc := New(database.NopTxRunner{}, lr, rr, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		_, err := svc.Create(context.Background(), userID, copyID, nil)
		require.Equal(t, apperr.KindLimitExceeded, apperr.KindOf(err))
	})

	t.Run("missing copy", func(t *testing.T) {
		cr := &copyRepoMock{
			lockByID: func(uuid.UUID) (*model.Copy, error) { return nil, nil },
		}
		svc := New(database.NopTxRunner{}, &loanRepoMock{}, &reservationRepoMock{}, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		_, err := svc.Create(context.Background(), userID, copyID, nil)
		require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestFine(t *testing.T) {
	due := baseTime

	cases := []struct {
		name     string
		returned time.Time
		want     int64
	}{
		{"on time", due.Add(-time.Hour), 0},
		{"exactly at the due date", due, 0},
		{"a second late still costs a day", due.Add(time.Second), FinePerDay},
		{"one full day late", due.Add(24 * time.Hour), FinePerDay},
		{"a day and an hour late", due.Add(25 * time.Hour), 2 * FinePerDay},
		{"three days late", due.Add(3 * 24 * time.Hour), 3 * FinePerDay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Fine(due, tc.returned))
		})
	}
}

func TestReturn(t *testing.T) {
	loanID := uuid.New()
	copyID := uuid.New()

	t.Run("late return stores the fine and frees the copy", func(t *testing.T) {
		var storedFine int64
		var copyStatus model.CopyStatus

		lr := &loanRepoMock{
			lockByID: func(id uuid.UUID) (*model.Loan, error) {
				return &model.Loan{
					ID:      id,
					CopyID:  copyID,
					Status:  model.LoanOverdue,
					DueDate: baseTime.Add(-3 * 24 * time.Hour),
				}, nil
			},
			markReturned: func(_ uuid.UUID, returnDate time.Time, fine int64) error {
				require.Equal(t, baseTime, returnDate)
				storedFine = fine
				return nil
			},
		}
		cr := &copyRepoMock{
			setStatus: func(_ uuid.UUID, status model.CopyStatus) error {
				copyStatus = status
				return nil
			},
		}

		svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		out, err := svc.Return(context.Background(), loanID)
		require.NoError(t, err)
		require.Equal(t, model.LoanReturned, out.Status)
		require.Equal(t, 3*FinePerDay, out.Fine)
		require.Equal(t, 3*FinePerDay, storedFine)
		require.Equal(t, model.CopyAvailable, copyStatus)
	})

	t.Run("on-time return carries no fine", func(t *testing.T) {
		lr := &loanRepoMock{
			lockByID: func(id uuid.UUID) (*model.Loan, error) {
				return &model.Loan{
					ID:      id,
					CopyID:  copyID,
					Status:  model.LoanActive,
					DueDate: baseTime.Add(24 * time.Hour),
				}, nil
			},
			markReturned: func(_ uuid.UUID, _ time.Time, fine int64) error {
				require.Zero(t, fine)
				return nil
			},
		}
		cr := &copyRepoMock{
			setStatus: func(uuid.UUID, model.CopyStatus) error { return nil },
		}
		svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		out, err := svc.Return(context.Background(), loanID)
		require.NoError(t, err)
		require.Zero(t, out.Fine)
	})

	t.Run("a returned loan cannot be returned again", func(t *testing.T) {
		lr := &loanRepoMock{
			lockByID: func(id uuid.UUID) (*model.Loan, error) {
				return &model.Loan{ID: id, Status: model.LoanReturned}, nil
			},
		}
		svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, &copyRepoMock{}, &fulfillerMock{}, clock.NewFake(baseTime))
		_, err := svc.Return(context.Background(), loanID)
		require.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("missing loan", func(t *testing.T) {
		lr := &loanRepoMock{
			lockByID: func(uuid.UUID) (*model.Loan, error) { return nil, nil },
		}
		svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, &copyRepoMock{}, &fulfillerMock{}, clock.NewFake(baseTime))
		_, err := svc.Return(context.Background(), loanID)
		require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestMarkOverdue(t *testing.T) {
	lr := &loanRepoMock{
		markOverdue: func(now time.Time) (int64, error) {
			require.Equal(t, baseTime, now)
			return 4, nil
		},
	}
	svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, &copyRepoMock{}, &fulfillerMock{}, clock.NewFake(baseTime))
	n, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}

func TestRemove(t *testing.T) {
	loanID := uuid.New()
	copyID := uuid.New()

	t.Run("dropping an open loan releases the copy first", func(t *testing.T) {
		var copyStatus model.CopyStatus
		lr := &loanRepoMock{
			lockByID: func(id uuid.UUID) (*model.Loan, error) {
				return &model.Loan{ID: id, CopyID: copyID, Status: model.LoanActive}, nil
			},
			delete: func(uuid.UUID) error { return nil },
		}
		cr := &copyRepoMock{
			setStatus: func(_ uuid.UUID, status model.CopyStatus) error {
				copyStatus = status
				return nil
			},
		}
		svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		require.NoError(t, svc.Remove(context.Background(), loanID))
		require.Equal(t, model.CopyAvailable, copyStatus)
	})

	t.Run("dropping a closed loan leaves the copy alone", func(t *testing.T) {
		lr := &loanRepoMock{
			lockByID: func(id uuid.UUID) (*model.Loan, error) {
				return &model.Loan{ID: id, CopyID: copyID, Status: model.LoanReturned}, nil
			},
			delete: func(uuid.UUID) error { return nil },
		}
		cr := &copyRepoMock{
			setStatus: func(uuid.UUID, model.CopyStatus) error {
				t.Fatal("copy status must not change")
				return nil
			},
		}
		svc := New(database.NopTxRunner{}, lr, &reservationRepoMock{}, cr, &fulfillerMock{}, clock.NewFake(baseTime))
		require.NoError(t, svc.Remove(context.Background(), loanID))
	})
}
