// model/reservation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationFulfilled ReservationStatus = "FULFILLED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// Terminal reservation states are never re-activated.
func (s ReservationStatus) Terminal() bool { return s != ReservationPending }

type Reservation struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	UserID          uuid.UUID         `db:"user_id" json:"user_id"`
	CopyID          uuid.UUID         `db:"copy_id" json:"copy_id"`
	ReservationDate time.Time         `db:"reservation_date" json:"reservation_date"`
	ExpirationDate  time.Time         `db:"expiration_date" json:"expiration_date"`
	Status          ReservationStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// ReservationDetail is the denormalized display shape (copy, book, holder).
type ReservationDetail struct {
	Reservation
	CopyCode  string    `db:"copy_code" json:"copy_code"`
	BookID    uuid.UUID `db:"book_id" json:"book_id"`
	BookTitle string    `db:"book_title" json:"book_title"`
	UserEmail string    `db:"user_email" json:"user_email"`
	UserName  string    `db:"user_name" json:"user_name"`
}

type ReservationStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Fulfilled int64 `json:"fulfilled"`
	Cancelled int64 `json:"cancelled"`
	Expired   int64 `json:"expired"`
}

// CreateReservationReq represents reservation creation payload
// swagger:model CreateReservationReq
type CreateReservationReq struct {
	CopyID         string     `json:"copy_id" validate:"required,uuid4"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}
