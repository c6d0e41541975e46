// model/loan.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanReturned LoanStatus = "RETURNED"
)

type Loan struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	CopyID     uuid.UUID  `db:"copy_id" json:"copy_id"`
	LoanDate   time.Time  `db:"loan_date" json:"loan_date"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	ReturnDate *time.Time `db:"return_date" json:"return_date,omitempty"`
	Status     LoanStatus `db:"status" json:"status"`
	Fine       int64      `db:"fine" json:"fine"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// LoanDetail is the denormalized display shape (copy, book, borrower).
type LoanDetail struct {
	Loan
	CopyCode  string    `db:"copy_code" json:"copy_code"`
	BookID    uuid.UUID `db:"book_id" json:"book_id"`
	BookTitle string    `db:"book_title" json:"book_title"`
	UserEmail string    `db:"user_email" json:"user_email"`
	UserName  string    `db:"user_name" json:"user_name"`
}

type LoanStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Overdue  int64 `json:"overdue"`
	Returned int64 `json:"returned"`
}

// CreateLoanReq represents loan creation payload
// swagger:model CreateLoanReq
type CreateLoanReq struct {
	CopyID string  `json:"copy_id" validate:"required,uuid4"`
	Notes  *string `json:"notes,omitempty"`
}
