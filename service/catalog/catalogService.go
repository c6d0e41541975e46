package catalogsvc

import (
	"context"

	"librarium/model"
	bookrepo "librarium/repository/book"
	googlebooksrepo "librarium/repository/googlebooks"
	"librarium/util/apperr"
)

// Service enriches the local catalog from the Google Books API.
type Service interface {
	Search(ctx context.Context, query string) (*googlebooksrepo.SearchResult, error)
	ByISBN(ctx context.Context, isbn string) (*googlebooksrepo.Volume, error)

	// Import fetches the volume by ISBN and creates a local Book.
	Import(ctx context.Context, isbn string) (*model.Book, error)
}

type service struct {
	gb googlebooksrepo.Repo
	br bookrepo.Repo
}

func New(gb googlebooksrepo.Repo, br bookrepo.Repo) Service {
	return &service{gb: gb, br: br}
}

func (s *service) Search(ctx context.Context, query string) (*googlebooksrepo.SearchResult, error) {
	return s.gb.Search(ctx, query)
}

func (s *service) ByISBN(ctx context.Context, isbn string) (*googlebooksrepo.Volume, error) {
	return s.gb.ByISBN(ctx, isbn)
}

func (s *service) Import(ctx context.Context, isbn string) (*model.Book, error) {
	existing, err := s.br.ByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("book with this isbn already exists")
	}

	v, err := s.gb.ByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}

	b := &model.Book{
		ISBN:   v.ISBN,
		Title:  v.Title,
		Author: v.Author,
	}
	if v.Publisher != "" {
		b.Publisher = &v.Publisher
	}
	if v.PublishedDate != "" {
		b.PublishedDate = &v.PublishedDate
	}
	if v.Description != "" {
		b.Description = &v.Description
	}
	if v.PageCount > 0 {
		pc := v.PageCount
		b.PageCount = &pc
	}
	if v.Language != "" {
		b.Language = &v.Language
	}
	if v.Thumbnail != "" {
		b.Thumbnail = &v.Thumbnail
	}

	if err := s.br.Create(ctx, b); err != nil {
		return nil, apperr.FromPg(err, "book with this isbn already exists")
	}
	return b, nil
}
