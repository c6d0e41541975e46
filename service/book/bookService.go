package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"librarium/model"
	bookrepo "librarium/repository/book"
	"librarium/util/apperr"
)

type Service interface {
	Create(ctx context.Context, req model.CreateBookReq) (*model.Book, error)
	List(ctx context.Context, search string) ([]model.Book, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Book, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateBookReq) (*model.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct{ br bookrepo.Repo }

func New(br bookrepo.Repo) Service { return &service{br: br} }

func (s *service) Create(ctx context.Context, req model.CreateBookReq) (*model.Book, error) {
	existing, err := s.br.ByISBN(ctx, req.ISBN)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("book with this isbn already exists")
	}

	b := &model.Book{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PublishedDate: req.PublishedDate,
		Description:   req.Description,
		PageCount:     req.PageCount,
		Language:      req.Language,
		Thumbnail:     req.Thumbnail,
	}
	if err := s.br.Create(ctx, b); err != nil {
		return nil, apperr.FromPg(err, "book with this isbn already exists")
	}
	return b, nil
}

func (s *service) List(ctx context.Context, search string) ([]model.Book, error) {
	return s.br.List(ctx, search)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b, err := s.br.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("book not found")
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req model.UpdateBookReq) (*model.Book, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ISBN != nil && *req.ISBN != b.ISBN {
		existing, err := s.br.ByISBN(ctx, *req.ISBN)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict("book with this isbn already exists")
		}
		b.ISBN = *req.ISBN
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.Publisher != nil {
		b.Publisher = req.Publisher
	}
	if req.PublishedDate != nil {
		b.PublishedDate = req.PublishedDate
	}
	if req.Description != nil {
		b.Description = req.Description
	}
	if req.PageCount != nil {
		b.PageCount = req.PageCount
	}
	if req.Language != nil {
		b.Language = req.Language
	}
	if req.Thumbnail != nil {
		b.Thumbnail = req.Thumbnail
	}

	if err := s.br.Update(ctx, b); err != nil {
		return nil, apperr.FromPg(err, "book with this isbn already exists")
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.br.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("book not found")
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperr.InvalidState("book still has copies")
		}
		return err
	}
	return nil
}
