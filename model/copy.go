// model/copy.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type CopyStatus string

const (
	CopyAvailable   CopyStatus = "AVAILABLE"
	CopyBorrowed    CopyStatus = "BORROWED"
	CopyReserved    CopyStatus = "RESERVED"
	CopyMaintenance CopyStatus = "MAINTENANCE"
	CopyLost        CopyStatus = "LOST"
	CopyDeleted     CopyStatus = "DELETED"
)

var validCopyStatuses = map[CopyStatus]bool{
	CopyAvailable:   true,
	CopyBorrowed:    true,
	CopyReserved:    true,
	CopyMaintenance: true,
	CopyLost:        true,
	CopyDeleted:     true,
}

func IsValidCopyStatus(s CopyStatus) bool { return validCopyStatuses[s] }

// Copy is a single physical instance of a Book. Its status field is the
// value consulted for availability decisions; the loan/reservation rows
// referencing the copy are the underlying obligations it summarizes.
type Copy struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	BookID    uuid.UUID  `db:"book_id" json:"book_id"`
	Status    CopyStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// CopyWithBook is the denormalized listing shape.
type CopyWithBook struct {
	Copy
	BookISBN   string `db:"book_isbn" json:"book_isbn"`
	BookTitle  string `db:"book_title" json:"book_title"`
	BookAuthor string `db:"book_author" json:"book_author"`
}

// Availability is the copy availability summary.
type Availability struct {
	Status      CopyStatus `json:"status"`
	IsAvailable bool       `json:"is_available"`
	IsReserved  bool       `json:"is_reserved"`
	IsBorrowed  bool       `json:"is_borrowed"`
}

// CreateCopyReq represents copy creation payload
// swagger:model CreateCopyReq
type CreateCopyReq struct {
	Code   string `json:"code" validate:"required"`
	BookID string `json:"book_id" validate:"required,uuid4"`
}

// UpdateCopyReq represents a partial copy update
// swagger:model UpdateCopyReq
type UpdateCopyReq struct {
	Code   *string `json:"code,omitempty"`
	BookID *string `json:"book_id,omitempty" validate:"omitempty,uuid4"`
}

// UpdateCopyStatusReq represents a manual status move (maintenance, lost, ...)
// swagger:model UpdateCopyStatusReq
type UpdateCopyStatusReq struct {
	Status CopyStatus `json:"status" validate:"required"`
}
