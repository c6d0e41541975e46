package catalogsvc

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"librarium/model"
	bookrepo "librarium/repository/book"
	googlebooksrepo "librarium/repository/googlebooks"
	"librarium/util/apperr"
)

type bookRepoMock struct {
	bookrepo.Repo
	create func(b *model.Book) error
	byISBN func(isbn string) (*model.Book, error)
}

func (m *bookRepoMock) Create(_ context.Context, b *model.Book) error { return m.create(b) }

func (m *bookRepoMock) ByISBN(_ context.Context, isbn string) (*model.Book, error) {
	return m.byISBN(isbn)
}

type googleBooksMock struct {
	search func(query string) (*googlebooksrepo.SearchResult, error)
	byISBN func(isbn string) (*googlebooksrepo.Volume, error)
}

func (m *googleBooksMock) Search(_ context.Context, query string) (*googlebooksrepo.SearchResult, error) {
	return m.search(query)
}

func (m *googleBooksMock) ByISBN(_ context.Context, isbn string) (*googlebooksrepo.Volume, error) {
	return m.byISBN(isbn)
}

func TestImport(t *testing.T) {
	t.Run("creates a book from the fetched volume", func(t *testing.T) {
		gb := &googleBooksMock{
			byISBN: func(isbn string) (*googlebooksrepo.Volume, error) {
				return &googlebooksrepo.Volume{
					ISBN:      isbn,
					Title:     "The Go Programming Language",
					Author:    "Alan A. A. Donovan",
					Publisher: "Addison-Wesley",
					PageCount: 380,
				}, nil
			},
		}
		br := &bookRepoMock{
			byISBN: func(string) (*model.Book, error) { return nil, nil },
			create: func(b *model.Book) error {
				b.ID = uuid.New()
				return nil
			},
		}

		b, err := New(gb, br).Import(context.Background(), "9780134190440")
		require.NoError(t, err)
		require.Equal(t, "9780134190440", b.ISBN)
		require.Equal(t, "The Go Programming Language", b.Title)
		require.NotNil(t, b.Publisher)
		require.Equal(t, "Addison-Wesley", *b.Publisher)
		require.NotNil(t, b.PageCount)
		require.Equal(t, 380, *b.PageCount)
		require.Nil(t, b.Description)
	})

	t.Run("isbn already in the catalog", func(t *testing.T) {
		br := &bookRepoMock{
			byISBN: func(isbn string) (*model.Book, error) {
				return &model.Book{ISBN: isbn}, nil
			},
		}
		_, err := New(&googleBooksMock{}, br).Import(context.Background(), "9780134190440")
		require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("volume not found upstream", func(t *testing.T) {
		gb := &googleBooksMock{
			byISBN: func(string) (*googlebooksrepo.Volume, error) {
				return nil, apperr.NotFound("no volume found")
			},
		}
		br := &bookRepoMock{
			byISBN: func(string) (*model.Book, error) { return nil, nil },
		}
		_, err := New(gb, br).Import(context.Background(), "9780000000000")
		require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
