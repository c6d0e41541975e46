package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/model"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var dialect = goqu.Dialect("postgres")

const bookCols = `id, isbn, title, author, publisher, published_date, description,
	page_count, language, thumbnail, created_at, updated_at`

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context, search string) ([]model.Book, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ByISBN(ctx context.Context, isbn string) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (isbn, title, author, publisher, published_date, description,
		                   page_count, language, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q,
		b.ISBN, b.Title, b.Author, b.Publisher, b.PublishedDate, b.Description,
		b.PageCount, b.Language, b.Thumbnail,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// List returns all books, or a title/author/isbn substring match when
// search is non-empty.
func (r *repo) List(ctx context.Context, search string) ([]model.Book, error) {
	ds := dialect.From("books").
		Select("id", "isbn", "title", "author", "publisher", "published_date",
			"description", "page_count", "language", "thumbnail", "created_at", "updated_at").
		Order(goqu.C("created_at").Desc())

	if search != "" {
		pat := "%" + search + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pat),
			goqu.C("author").ILike(pat),
			goqu.C("isbn").ILike(pat),
		))
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var out []model.Book
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id = $1`
	b := &model.Book{}
	if err := r.db.GetContext(ctx, b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *repo) ByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE isbn = $1`
	b := &model.Book{}
	if err := r.db.GetContext(ctx, b, q, isbn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
		UPDATE books
		SET isbn = $2, title = $3, author = $4, publisher = $5, published_date = $6,
		    description = $7, page_count = $8, language = $9, thumbnail = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, q,
		b.ID, b.ISBN, b.Title, b.Author, b.Publisher, b.PublishedDate,
		b.Description, b.PageCount, b.Language, b.Thumbnail,
	).Scan(&b.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
