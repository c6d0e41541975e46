// model/book.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ISBN          string    `db:"isbn" json:"isbn"`
	Title         string    `db:"title" json:"title"`
	Author        string    `db:"author" json:"author"`
	Publisher     *string   `db:"publisher" json:"publisher,omitempty"`
	PublishedDate *string   `db:"published_date" json:"published_date,omitempty"`
	Description   *string   `db:"description" json:"description,omitempty"`
	PageCount     *int      `db:"page_count" json:"page_count,omitempty"`
	Language      *string   `db:"language" json:"language,omitempty"`
	Thumbnail     *string   `db:"thumbnail" json:"thumbnail,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CreateBookReq represents book creation payload
// swagger:model CreateBookReq
type CreateBookReq struct {
	ISBN          string  `json:"isbn" validate:"required"`
	Title         string  `json:"title" validate:"required"`
	Author        string  `json:"author" validate:"required"`
	Publisher     *string `json:"publisher,omitempty"`
	PublishedDate *string `json:"published_date,omitempty"`
	Description   *string `json:"description,omitempty"`
	PageCount     *int    `json:"page_count,omitempty" validate:"omitempty,gt=0"`
	Language      *string `json:"language,omitempty"`
	Thumbnail     *string `json:"thumbnail,omitempty"`
}

// UpdateBookReq represents a partial book update
// swagger:model UpdateBookReq
type UpdateBookReq struct {
	ISBN          *string `json:"isbn,omitempty"`
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	Publisher     *string `json:"publisher,omitempty"`
	PublishedDate *string `json:"published_date,omitempty"`
	Description   *string `json:"description,omitempty"`
	PageCount     *int    `json:"page_count,omitempty" validate:"omitempty,gt=0"`
	Language      *string `json:"language,omitempty"`
	Thumbnail     *string `json:"thumbnail,omitempty"`
}
